package vedirect

// EncodeFrame 将字段编码为文本帧字节流，并追加 Checksum 字段
// Structure: ["\r\n" label "\t" value]... "\r\nChecksum\t" [check 1]
func EncodeFrame(fields []Field) []byte {
	size := len("\r\n"+checksumLabel+"\t") + 1
	for _, f := range fields {
		size += 3 + len(f.Label) + len(f.Value)
	}
	buf := make([]byte, 0, size)
	for _, f := range fields {
		buf = appendField(buf, f.Label, f.Value)
	}
	buf = append(buf, "\r\n"+checksumLabel+"\t"...)
	return append(buf, ChecksumByte(buf))
}

func appendField(buf []byte, label, value string) []byte {
	buf = append(buf, '\r', '\n')
	buf = append(buf, label...)
	buf = append(buf, '\t')
	return append(buf, value...)
}
