package vedirect

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

// singleBlock is one SmartSolar MPPT 100|15 frame as captured from the port.
const singleBlock = "DQpQSUQJMHhBMDU1DQpGVwkxNjQNClNFUiMJSFEyMjMyR1c0M0UNClYJMTMyMzANCkkJLTg3MA0KVlBWCTE0MjANClBQVgkwDQpD" +
	"UwkwDQpNUFBUCTANCk9SCTB4MDAwMDAwMDENCkVSUgkwDQpMT0FECU9ODQpJTAk4MDANCkgxOQkxNDEwDQpIMjAJMzENCkgyMQk5" +
	"NQ0KSDIyCTI5DQpIMjMJOTINCkhTRFMJNDcNCkNoZWNrc3VtCUA="

// streamCapture holds 12 back-to-back frames behind two bytes left over from
// the previous read.
const streamCapture = "AD8NClBJRAkweEEwNTUNCkZXCTE2NA0KU0VSIwlIUTIyMzJHVzQzRQ0KVgkxMzIzMA0KSQktODcwDQpWUFYJMTQyMA0KUFBWCTAN" +
	"CkNTCTANCk1QUFQJMA0KT1IJMHgwMDAwMDAwMQ0KRVJSCTANCkxPQUQJT04NCklMCTgwMA0KSDE5CTE0MTANCkgyMAkzMQ0KSDIx" +
	"CTk1DQpIMjIJMjkNCkgyMwk5Mg0KSFNEUwk0Nw0KQ2hlY2tzdW0JQA0KUElECTB4QTA1NQ0KRlcJMTY0DQpTRVIjCUhRMjIzMkdX" +
	"NDNFDQpWCTEzMjMwDQpJCS04NzANClZQVgkxNDIwDQpQUFYJMA0KQ1MJMA0KTVBQVAkwDQpPUgkweDAwMDAwMDAxDQpFUlIJMA0K" +
	"TE9BRAlPTg0KSUwJOTAwDQpIMTkJMTQxMA0KSDIwCTMxDQpIMjEJOTUNCkgyMgkyOQ0KSDIzCTkyDQpIU0RTCTQ3DQpDaGVja3N1" +
	"bQk/DQpQSUQJMHhBMDU1DQpGVwkxNjQNClNFUiMJSFEyMjMyR1c0M0UNClYJMTMyMzANCkkJLTg4MA0KVlBWCTE0MjANClBQVgkw" +
	"DQpDUwkwDQpNUFBUCTANCk9SCTB4MDAwMDAwMDENCkVSUgkwDQpMT0FECU9ODQpJTAk4MDANCkgxOQkxNDEwDQpIMjAJMzENCkgy" +
	"MQk5NQ0KSDIyCTI5DQpIMjMJOTINCkhTRFMJNDcNCkNoZWNrc3VtCT8NClBJRAkweEEwNTUNCkZXCTE2NA0KU0VSIwlIUTIyMzJH" +
	"VzQzRQ0KVgkxMzIzMA0KSQktODgwDQpWUFYJMTM5MA0KUFBWCTANCkNTCTANCk1QUFQJMA0KT1IJMHgwMDAwMDAwMQ0KRVJSCTAN" +
	"CkxPQUQJT04NCklMCTgwMA0KSDE5CTE0MTANCkgyMAkzMQ0KSDIxCTk1DQpIMjIJMjkNCkgyMwk5Mg0KSFNEUwk0Nw0KQ2hlY2tz" +
	"dW0JOQ0KUElECTB4QTA1NQ0KRlcJMTY0DQpTRVIjCUhRMjIzMkdXNDNFDQpWCTEzMjMwDQpJCS04NjANClZQVgkxMzkwDQpQUFYJ" +
	"MA0KQ1MJMA0KTVBQVAkwDQpPUgkweDAwMDAwMDAxDQpFUlIJMA0KTE9BRAlPTg0KSUwJODAwDQpIMTkJMTQxMA0KSDIwCTMxDQpI" +
	"MjEJOTUNCkgyMgkyOQ0KSDIzCTkyDQpIU0RTCTQ3DQpDaGVja3N1bQk7DQpQSUQJMHhBMDU1DQpGVwkxNjQNClNFUiMJSFEyMjMy" +
	"R1c0M0UNClYJMTMyMzANCkkJLTg2MA0KVlBWCTEzOTANClBQVgkwDQpDUwkwDQpNUFBUCTANCk9SCTB4MDAwMDAwMDENCkVSUgkw" +
	"DQpMT0FECU9ODQpJTAk4MDANCkgxOQkxNDEwDQpIMjAJMzENCkgyMQk5NQ0KSDIyCTI5DQpIMjMJOTINCkhTRFMJNDcNCkNoZWNr" +
	"c3VtCTsNClBJRAkweEEwNTUNCkZXCTE2NA0KU0VSIwlIUTIyMzJHVzQzRQ0KVgkxMzIzMA0KSQktODgwDQpWUFYJMTM5MA0KUFBW" +
	"CTANCkNTCTANCk1QUFQJMA0KT1IJMHgwMDAwMDAwMQ0KRVJSCTANCkxPQUQJT04NCklMCTgwMA0KSDE5CTE0MTANCkgyMAkzMQ0K" +
	"SDIxCTk1DQpIMjIJMjkNCkgyMwk5Mg0KSFNEUwk0Nw0KQ2hlY2tzdW0JOQ0KUElECTB4QTA1NQ0KRlcJMTY0DQpTRVIjCUhRMjIz" +
	"MkdXNDNFDQpWCTEzMjMwDQpJCS04NzANClZQVgkxMzkwDQpQUFYJMA0KQ1MJMA0KTVBQVAkwDQpPUgkweDAwMDAwMDAxDQpFUlIJ" +
	"MA0KTE9BRAlPTg0KSUwJODAwDQpIMTkJMTQxMA0KSDIwCTMxDQpIMjEJOTUNCkgyMgkyOQ0KSDIzCTkyDQpIU0RTCTQ3DQpDaGVj" +
	"a3N1bQk6DQpQSUQJMHhBMDU1DQpGVwkxNjQNClNFUiMJSFEyMjMyR1c0M0UNClYJMTMyMzANCkkJLTg3MA0KVlBWCTEzOTANClBQ" +
	"VgkwDQpDUwkwDQpNUFBUCTANCk9SCTB4MDAwMDAwMDENCkVSUgkwDQpMT0FECU9ODQpJTAk4MDANCkgxOQkxNDEwDQpIMjAJMzEN" +
	"CkgyMQk5NQ0KSDIyCTI5DQpIMjMJOTINCkhTRFMJNDcNCkNoZWNrc3VtCToNClBJRAkweEEwNTUNCkZXCTE2NA0KU0VSIwlIUTIy" +
	"MzJHVzQzRQ0KVgkxMzIzMA0KSQktODIwDQpWUFYJMTM5MA0KUFBWCTANCkNTCTANCk1QUFQJMA0KT1IJMHgwMDAwMDAwMQ0KRVJS" +
	"CTANCkxPQUQJT04NCklMCTgwMA0KSDE5CTE0MTANCkgyMAkzMQ0KSDIxCTk1DQpIMjIJMjkNCkgyMwk5Mg0KSFNEUwk0Nw0KQ2hl" +
	"Y2tzdW0JPw0KUElECTB4QTA1NQ0KRlcJMTY0DQpTRVIjCUhRMjIzMkdXNDNFDQpWCTEzMjMwDQpJCS03OTANClZQVgkxMzkwDQpQ" +
	"UFYJMA0KQ1MJMA0KTVBQVAkwDQpPUgkweDAwMDAwMDAxDQpFUlIJMA0KTE9BRAlPTg0KSUwJODAwDQpIMTkJMTQxMA0KSDIwCTMx" +
	"DQpIMjEJOTUNCkgyMgkyOQ0KSDIzCTkyDQpIU0RTCTQ3DQpDaGVja3N1bQk5DQpQSUQJMHhBMDU1DQpGVwkxNjQNClNFUiMJSFEy" +
	"MjMyR1c0M0UNClYJMTMyMzANCkkJLTg3MA0KVlBWCTEzOTANClBQVgkwDQpDUwkwDQpNUFBUCTANCk9SCTB4MDAwMDAwMDENCkVS" +
	"UgkwDQpMT0FECU9ODQpJTAk4MDANCkgxOQkxNDEwDQpIMjAJMzENCkgyMQk5NQ0KSDIyCTI5DQpIMjMJOTINCkhTRFMJNDcNCkNo" +
	"ZWNrc3VtCTo="

func decodeFixture(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}

// sampleFields mirrors singleBlock field for field.
func sampleFields() []Field {
	return []Field{
		{"PID", "0xA055"},
		{"FW", "164"},
		{"SER#", "HQ2232GW43E"},
		{"V", "13230"},
		{"I", "-870"},
		{"VPV", "1420"},
		{"PPV", "0"},
		{"CS", "0"},
		{"MPPT", "0"},
		{"OR", "0x00000001"},
		{"ERR", "0"},
		{"LOAD", "ON"},
		{"IL", "800"},
		{"H19", "1410"},
		{"H20", "31"},
		{"H21", "95"},
		{"H22", "29"},
		{"H23", "92"},
		{"HSDS", "47"},
	}
}
