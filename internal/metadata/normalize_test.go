package metadata_test

import (
	"strings"
	"testing"

	"cadence/internal/metadata"
)

func TestClean(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"official video tag", "Numb (Official Video)", "Numb"},
		{"4k bracket tag", "Numb [4K UPGRADE]", "Numb"},
		{"lyrics tag", "Numb [Lyrics]", "Numb"},
		{"remaster tag", "Numb (Remastered 2013)", "Numb"},
		{"producer credit", "Basureta Prod. Cientouno", "Basureta"},
		{"leading track number", "16. Basureta", "Basureta"},
		{"trailing official", "Kase.O Oficial", "Kase.O"},
		{"trailing pipe segment", "Numb | Linkin Park Channel", "Numb"},
		{"keeps real parentheses", "Basureta (Tiempos Raros)", "Basureta (Tiempos Raros)"},
		{"empty becomes sentinel", "   ", "Unknown"},
		{"whitespace collapse", "Numb    Encore", "Numb Encore"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := metadata.Clean(tc.input); got != tc.expected {
				t.Fatalf("Clean(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestLooksLikeChannel(t *testing.T) {
	channelLike := []string{
		"KaseO TV Oficial",
		"LinkinParkVEVO",
		"Linkin Park - Topic",
		"Warner Records",
		"Unknown",
		"",
	}
	for _, artist := range channelLike {
		if !metadata.LooksLikeChannel(artist) {
			t.Errorf("expected %q to look like a channel", artist)
		}
	}
	performers := []string{"Linkin Park", "Kase.O", "Queen"}
	for _, artist := range performers {
		if metadata.LooksLikeChannel(artist) {
			t.Errorf("expected %q to look like a performer", artist)
		}
	}
}

func TestSplitArtistTitle(t *testing.T) {
	artist, title := metadata.SplitArtistTitle("Linkin Park - Numb")
	if artist != "Linkin Park" || title != "Numb" {
		t.Fatalf("unexpected split: %q / %q", artist, title)
	}

	artist, title = metadata.SplitArtistTitle("Numb – Linkin Park")
	if artist != "Numb" || title != "Linkin Park" {
		t.Fatalf("unexpected en-dash split: %q / %q", artist, title)
	}

	artist, title = metadata.SplitArtistTitle("Numb")
	if artist != "" || title != "Numb" {
		t.Fatalf("expected no split for plain title, got %q / %q", artist, title)
	}
}

func TestChannelVariants(t *testing.T) {
	variants := metadata.ChannelVariants("KaseO TV Oficial")
	if len(variants) == 0 {
		t.Fatal("expected variants for channel-like artist")
	}
	if variants[0] != "Kase.O" {
		t.Fatalf("expected dotted canonical form first, got %v", variants)
	}
	if len(variants) > 3 {
		t.Fatalf("expected at most 3 variants, got %v", variants)
	}
}

func TestChannelVariantsSpacedInitial(t *testing.T) {
	variants := metadata.ChannelVariants("Kase O Official")
	if len(variants) == 0 || variants[0] != "Kase.O" {
		t.Fatalf("expected Kase.O first, got %v", variants)
	}
}

func TestChannelVariantsVevo(t *testing.T) {
	variants := metadata.ChannelVariants("LinkinParkVEVO")
	found := false
	for _, v := range variants {
		if strings.EqualFold(v, "LinkinPark") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected VEVO suffix stripped, got %v", variants)
	}
}

func TestStripTrackNumber(t *testing.T) {
	if got := metadata.StripTrackNumber("16. Basureta"); got != "Basureta" {
		t.Fatalf("StripTrackNumber = %q", got)
	}
	if got := metadata.StripTrackNumber("Basureta"); got != "Basureta" {
		t.Fatalf("StripTrackNumber should be a no-op, got %q", got)
	}
}

func TestIsGenericAlbum(t *testing.T) {
	for _, album := range []string{"", "Singles", "unknown", "Manual Download", "none", "  MANUAL  "} {
		if !metadata.IsGenericAlbum(album) {
			t.Errorf("expected %q to be generic", album)
		}
	}
	if metadata.IsGenericAlbum("Meteora") {
		t.Error("real album flagged generic")
	}
}
