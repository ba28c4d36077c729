package rsajwt

// Minimal DER construction for the one transform this package needs:
// wrapping a PKCS#1 RSAPrivateKey into a PKCS#8 PrivateKeyInfo. The
// structure is fixed, so explicit tag/length/value assembly is enough;
// a general ASN.1 library would be overkill here.

const (
	tagInteger     = 0x02
	tagOctetString = 0x04
	tagNull        = 0x05
	tagOID         = 0x06
	tagSequence    = 0x30
)

// oidRSAEncryption is 1.2.840.113549.1.1.1, pre-encoded.
var oidRSAEncryption = []byte{0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01}

// derLength encodes a DER length field. Short form for values below
// 128; long form with 1, 2 or 3 length octets above that, prefixed by
// 0x80 | count.
func derLength(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n < 0x100:
		return []byte{0x81, byte(n)}
	case n < 0x10000:
		return []byte{0x82, byte(n >> 8), byte(n)}
	default:
		return []byte{0x83, byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

// derValue assembles one tag/length/value triple.
func derValue(tag byte, value []byte) []byte {
	out := make([]byte, 0, 1+4+len(value))
	out = append(out, tag)
	out = append(out, derLength(len(value))...)
	return append(out, value...)
}

func derSequence(members ...[]byte) []byte {
	var body []byte
	for _, m := range members {
		body = append(body, m...)
	}
	return derValue(tagSequence, body)
}

// wrapPKCS1 re-wraps a DER-encoded PKCS#1 RSAPrivateKey into a PKCS#8
// PrivateKeyInfo:
//
//	SEQUENCE {
//	  INTEGER 0
//	  SEQUENCE { OID rsaEncryption, NULL }
//	  OCTET STRING { <pkcs1> }
//	}
func wrapPKCS1(pkcs1 []byte) []byte {
	return derSequence(
		derValue(tagInteger, []byte{0x00}),
		derSequence(
			derValue(tagOID, oidRSAEncryption),
			derValue(tagNull, nil),
		),
		derValue(tagOctetString, pkcs1),
	)
}
