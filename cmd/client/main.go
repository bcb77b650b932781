package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/pflag"

	"vedirect-gateway/internal/client"
)

func main() {
	addr := pflag.StringP("addr", "a", "127.0.0.1:9020", "gateway TCP address")
	serial := pflag.String("serial", "HQ2232GW43E", "simulated SER#")
	count := pflag.IntP("count", "n", 10, "number of frames to send")
	interval := pflag.Duration("interval", time.Second, "delay between frames")
	replay := pflag.String("replay", "", "raw capture file to stream instead of synthetic frames")
	garbage := pflag.Bool("garbage", true, "send a few bytes of line noise first")
	pflag.Parse()

	fmt.Println("启动测试客户端...")
	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Printf("连接服务器失败: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("已连接到服务器 %s\n", *addr)

	if *garbage {
		// 模拟从帧中间开始读取串口
		if _, err := conn.Write([]byte("\x00?7\r\nV\t13")); err != nil {
			panic(err)
		}
	}

	if *replay != "" {
		if err := replayFile(conn, *replay, *interval); err != nil {
			fmt.Printf("回放失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("回放完成，关闭连接")
		return
	}

	builder := client.NewFrameBuilder(*serial)
	for i := 0; i < *count; i++ {
		s := client.Simulate(i * 4)
		frame := builder.BuildText(s)
		fmt.Printf(">> 发送文本帧 [%d] V=%.2f PPV=%d CS=%s\n", i+1, s.BatteryVoltage, s.PanelPower, s.State)
		if _, err := conn.Write(frame); err != nil {
			panic(err)
		}

		// 每 5 帧插入一条 HEX ping 响应
		if i%5 == 4 {
			fmt.Println(">> 发送 HEX ping 响应")
			if _, err := conn.Write(builder.BuildPingResponse()); err != nil {
				panic(err)
			}
		}
		time.Sleep(*interval)
	}

	fmt.Println("测试完成，关闭连接")
}

// replayFile 按 VE.Direct 19200 波特率的节奏分块发送抓包数据
func replayFile(conn net.Conn, path string, interval time.Duration) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	const chunk = 64
	for off := 0; off < len(data); off += chunk {
		end := min(off+chunk, len(data))
		if _, err := conn.Write(data[off:end]); err != nil {
			return err
		}
		time.Sleep(interval / 16)
	}
	return nil
}
