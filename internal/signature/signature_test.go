package signature

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func TestRecoverRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}

	message := []byte("mock-namespace")
	sig, err := SignRecoverable(priv, message)
	if err != nil {
		t.Fatalf("SignRecoverable: %v", err)
	}

	got, err := Recover(sig, message)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}

	want, err := AddressFromCompressedPubKey(priv.PubKey().SerializeCompressed())
	if err != nil {
		t.Fatalf("AddressFromCompressedPubKey: %v", err)
	}

	if got != want {
		t.Errorf("Recover() = %s, want %s", got, want)
	}
}

func TestRecoverWrongMessageDiffersAddress(t *testing.T) {
	priv, _ := secp256k1.GeneratePrivateKey()
	sig, _ := SignRecoverable(priv, []byte("message-a"))

	got, err := Recover(sig, []byte("message-b"))
	if err != nil {
		// A bad recovery is also an acceptable outcome for a mismatched
		// message/signature pair.
		return
	}

	want, _ := AddressFromCompressedPubKey(priv.PubKey().SerializeCompressed())
	if got == want {
		t.Errorf("Recover() with mismatched message unexpectedly recovered the signer's address")
	}
}

func TestRecoverBadRecoveryID(t *testing.T) {
	var sig [65]byte
	sig[64] = 9
	if _, err := Recover(sig, []byte("m")); err != ErrBadSignatureLength {
		t.Errorf("err = %v, want ErrBadSignatureLength", err)
	}
}
