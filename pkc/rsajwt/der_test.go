package rsajwt

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"testing"
)

func TestDERLength_Boundaries(t *testing.T) {
	cases := []struct {
		n    int
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x80}},
		{255, []byte{0x81, 0xff}},
		{256, []byte{0x82, 0x01, 0x00}},
		{65535, []byte{0x82, 0xff, 0xff}},
		{65536, []byte{0x83, 0x01, 0x00, 0x00}},
		{1193046, []byte{0x83, 0x12, 0x34, 0x56}},
	}
	for _, c := range cases {
		if got := derLength(c.n); !bytes.Equal(got, c.want) {
			t.Errorf("derLength(%d) = %x, want %x", c.n, got, c.want)
		}
	}
}

func TestDERValue_LengthForms(t *testing.T) {
	// One payload per length-encoding form; the header grows with it.
	for _, size := range []int{1, 127, 128, 300, 70000} {
		payload := bytes.Repeat([]byte{0xab}, size)
		encoded := derValue(tagOctetString, payload)

		if encoded[0] != tagOctetString {
			t.Fatalf("size %d: tag = %#x", size, encoded[0])
		}
		headerLen := 1 + len(derLength(size))
		if len(encoded) != headerLen+size {
			t.Errorf("size %d: encoded length %d, want %d", size, len(encoded), headerLen+size)
		}
		if !bytes.Equal(encoded[headerLen:], payload) {
			t.Errorf("size %d: payload corrupted", size)
		}
	}
}

// The wrap must byte-for-byte match what the platform's own PKCS#8
// marshaller produces for the same key.
func TestWrapPKCS1_MatchesX509(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	pkcs1 := x509.MarshalPKCS1PrivateKey(key)
	wrapped := wrapPKCS1(pkcs1)

	reference, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}

	if !bytes.Equal(wrapped, reference) {
		t.Errorf("wrapPKCS1 output differs from x509 PKCS#8 encoding\n got %d bytes\nwant %d bytes", len(wrapped), len(reference))
	}
}

func TestWrapPKCS1_ParsesBack(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	wrapped := wrapPKCS1(x509.MarshalPKCS1PrivateKey(key))
	parsed, err := x509.ParsePKCS8PrivateKey(wrapped)
	if err != nil {
		t.Fatalf("ParsePKCS8PrivateKey of wrapped key: %v", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		t.Fatalf("parsed key is %T", parsed)
	}
	if rsaKey.N.Cmp(key.N) != 0 {
		t.Error("modulus changed through the wrap")
	}
}
