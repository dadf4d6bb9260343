package lastfm

import "testing"

func TestSignRequest(t *testing.T) {
	params := map[string]string{
		"method":  "auth.getSession",
		"api_key": "key",
		"token":   "token",
	}

	// md5("api_keykeymethodauth.getSessiontokentokensecret")
	want := "9ac306496295a8866c4a8673395540eb"
	if got := signRequest(params, "secret"); got != want {
		t.Errorf("signRequest() = %q, want %q", got, want)
	}
}

func TestSignRequestDeterministic(t *testing.T) {
	secret := "shared-secret"
	base := signRequest(map[string]string{
		"a": "1", "b": "2", "c": "3", "method": "track.scrobble",
	}, secret)

	// Maps built in different insertion orders must sign identically.
	for i := 0; i < 20; i++ {
		params := map[string]string{}
		params["method"] = "track.scrobble"
		params["c"] = "3"
		params["a"] = "1"
		params["b"] = "2"
		if got := signRequest(params, secret); got != base {
			t.Fatalf("iteration %d: signature %q differs from %q", i, got, base)
		}
	}
}

func TestSignRequestSecretMatters(t *testing.T) {
	params := map[string]string{"method": "auth.getToken", "api_key": "k"}
	if signRequest(params, "one") == signRequest(params, "two") {
		t.Error("different secrets produced the same signature")
	}
}
