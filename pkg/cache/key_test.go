package cache

import (
	"net/url"
	"strings"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint only",
			key: Key{
				Endpoint: "/api/keywords/",
			},
			want: "rank:api/keywords",
		},
		{
			name: "host and sorted query",
			key: Key{
				Host:     "ranks.example.com",
				Endpoint: "/api/keywords",
				QueryParams: url.Values{
					"offset": []string{"200"},
					"limit":  []string{"100"},
					"Engine": []string{"google"},
				},
			},
			want: "rank:ranks.example.com:api/keywords:Engine=google:limit=100:offset=200",
		},
		{
			name: "access token is folded in as a digest",
			key: Key{
				Endpoint: "/api/keywords",
				QueryParams: url.Values{
					"access_token": []string{"secret"},
					"offset":       []string{"0"},
				},
			},
			want: "rank:api/keywords:offset=0:tok=a9e9df78bfb5846c",
		},
		{
			name: "multi-valued parameter",
			key: Key{
				Endpoint: "/api/keywords",
				QueryParams: url.Values{
					"device": []string{"d", "m"},
				},
			},
			want: "rank:api/keywords:device=d,m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	u, err := url.Parse("https://ranks.example.com/api/keywords?access_token=secret&offset=100&limit=100")
	if err != nil {
		t.Fatal(err)
	}

	got := KeyFromURL(u).String()
	if strings.Contains(got, "secret") {
		t.Errorf("key %q leaks the access token", got)
	}

	want := "rank:ranks.example.com:api/keywords:limit=100:offset=100:tok=a9e9df78bfb5846c"
	if got != want {
		t.Errorf("KeyFromURL() = %v, want %v", got, want)
	}
}

// TestKey_OffsetsDiffer ensures pages of one run never share a key
func TestKey_OffsetsDiffer(t *testing.T) {
	first := Key{Endpoint: "/k", QueryParams: url.Values{"offset": []string{"0"}}}
	second := Key{Endpoint: "/k", QueryParams: url.Values{"offset": []string{"100"}}}

	if first.String() == second.String() {
		t.Errorf("keys for different offsets collide: %s", first.String())
	}
}

func TestKey_TokensDiffer(t *testing.T) {
	base := "https://api.example.com/keywords?sDate=20240820&limit=100&offset=0&access_token="

	keyFor := func(token string) string {
		t.Helper()
		u, err := url.Parse(base + token)
		if err != nil {
			t.Fatal(err)
		}
		return KeyFromURL(u).String()
	}

	accountA := keyFor("accountA-token")
	accountB := keyFor("accountB-token")

	if accountA == accountB {
		t.Errorf("keys for different access tokens collide: %s", accountA)
	}
	if accountA != keyFor("accountA-token") {
		t.Error("key for the same access token is not stable")
	}
	for _, key := range []string{accountA, accountB} {
		if strings.Contains(key, "account") {
			t.Errorf("key %q leaks the access token", key)
		}
	}
}

func TestKey_NoTokenNoDigest(t *testing.T) {
	key := Key{Endpoint: "/k", QueryParams: url.Values{"offset": []string{"0"}}}
	if strings.Contains(key.String(), "tok=") {
		t.Errorf("key without access token has a digest: %s", key.String())
	}
}
