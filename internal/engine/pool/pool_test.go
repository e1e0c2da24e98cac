package pool

import (
	"fmt"
	"strings"
	"testing"
)

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%02d", i)
	}
	return keys
}

func TestKeys(t *testing.T) {
	all := makeKeys(23)

	tests := []struct {
		name      string
		index     int
		wantLen   int
		wantFirst string
	}{
		{name: "first pool", index: 0, wantLen: 10, wantFirst: "key-00"},
		{name: "second pool", index: 1, wantLen: 10, wantFirst: "key-10"},
		{name: "clipped last pool", index: 2, wantLen: 3, wantFirst: "key-20"},
		{name: "past the end", index: 3, wantLen: 0},
		{name: "negative", index: -1, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keys(tt.index, all)
			if len(got) != tt.wantLen {
				t.Fatalf("Keys(%d) len = %d, want %d", tt.index, len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0] != tt.wantFirst {
				t.Errorf("Keys(%d)[0] = %s, want %s", tt.index, got[0], tt.wantFirst)
			}
		})
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{10, 1},
		{11, 2},
		{20, 2},
		{21, 3},
	}
	for _, tt := range tests {
		if got := Count(makeKeys(tt.n)); got != tt.want {
			t.Errorf("Count(%d keys) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(5, 3); got != 2 {
		t.Errorf("Normalize(5, 3) = %d, want 2", got)
	}
	if got := Normalize(-1, 3); got != 0 {
		t.Errorf("Normalize(-1, 3) = %d, want 0", got)
	}
	if got := Normalize(4, 0); got != 0 {
		t.Errorf("Normalize(4, 0) = %d, want 0", got)
	}
}

func TestDescribe_MasksKeys(t *testing.T) {
	all := append(makeKeys(11), "AIzaSyD-very-long-secret-9Q1x")
	infos := Describe(all)
	if len(infos) != 2 {
		t.Fatalf("Describe returned %d pools, want 2", len(infos))
	}
	if infos[1].Size != 2 {
		t.Errorf("pool 1 size = %d, want 2", infos[1].Size)
	}
	for _, info := range infos {
		for _, k := range info.Keys {
			if strings.Contains(k, "secret") || strings.HasPrefix(k, "key-") {
				t.Errorf("credential leaked in Describe: %s", k)
			}
		}
	}
	if got := infos[1].Keys[1]; got != "AIza…9Q1x" {
		t.Errorf("Mask = %s, want AIza…9Q1x", got)
	}
}
