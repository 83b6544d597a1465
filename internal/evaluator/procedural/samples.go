package procedural

import "encoding/hex"

// Samples are built-in store data records, keyed by lowercase name.
var Samples = map[string][]byte{
	"jasmine": mustHex("03000040a04138c4a0840000dbb88731be602b2a2a420000592d4a00610073006d0069006e0065000000000000001c3712107b01216e431c0d64c71800081e820d003041b35b826d00006f007300690067006f006e0061006c0000000000903a"),
	"lane":    mustHex("0301003080215864804400a091cdf674e00c7fe47c69000058584c0061006e00650000007400000061006e0065007f2e08003306a5284312e123840e611015860d0020410052101d4c0061006e00650000000000000000000000000000009178"),
}

// DefaultSample names the record used when no descriptor is given.
const DefaultSample = "jasmine"

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
