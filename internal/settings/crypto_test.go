package settings

import (
	"bytes"
	"errors"
	"testing"
)

func TestCryptoEncryptDecrypt(t *testing.T) {
	crypto := NewCrypto("test-passphrase")
	plaintext := []byte(`{"team_id":"team-1","channel_id":"19:abc@thread.tacv2"}`)

	sealed, err := crypto.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if bytes.Contains(sealed, []byte("team-1")) {
		t.Error("Encrypt() output contains plaintext")
	}

	opened, err := crypto.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", opened, plaintext)
	}
}

func TestCryptoFreshSaltPerCall(t *testing.T) {
	crypto := NewCrypto("")
	a, _ := crypto.Encrypt([]byte("same"))
	b, _ := crypto.Encrypt([]byte("same"))

	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext should differ")
	}
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("salt should be random per encryption")
	}
}

func TestCryptoWrongPassphrase(t *testing.T) {
	sealed, err := NewCrypto("right").Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	_, err = NewCrypto("wrong").Decrypt(sealed)
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("Decrypt() error = %v, want ErrDecrypt", err)
	}
}

func TestCryptoCorruptInput(t *testing.T) {
	crypto := NewCrypto("test-passphrase")
	sealed, _ := crypto.Encrypt([]byte("secret"))
	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"shorter than salt", []byte("short")},
		{"salt only", make([]byte, saltSize)},
		{"tampered", tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := crypto.Decrypt(tt.data); !errors.Is(err, ErrDecrypt) {
				t.Errorf("Decrypt() error = %v, want ErrDecrypt", err)
			}
		})
	}
}
