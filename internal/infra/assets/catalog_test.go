package assets

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"flag-quiz-service/internal/domain"
)

func TestDirCatalogListsFlags(t *testing.T) {
	catalog := NewDirCatalog(sampleFS(), "png", nil)

	flags, err := catalog.ListFlags(context.Background(), "Europe")
	if err != nil {
		t.Fatalf("list flags: %v", err)
	}
	// Asia-Japan.png lives under Europe/ and is skipped with the other stray files.
	want := []domain.FlagID{"Europe-Czech_Republic", "Europe-France"}
	if len(flags) != len(want) {
		t.Fatalf("expected %v, got %v", want, flags)
	}
	for i := range want {
		if flags[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, flags)
		}
	}
}

func TestDirCatalogUnknownRegion(t *testing.T) {
	catalog := NewDirCatalog(sampleFS(), ".png", nil)

	for _, region := range []string{"Atlantis", "../etc", "Europe/sub"} {
		if _, err := catalog.ListFlags(context.Background(), region); !errors.Is(err, domain.ErrRegionNotFound) {
			t.Fatalf("%s: expected region not found, got %v", region, err)
		}
	}
}

func TestDirCatalogRegions(t *testing.T) {
	regions, err := NewDirCatalog(sampleFS(), ".png", nil).Regions(context.Background())
	if err != nil {
		t.Fatalf("regions: %v", err)
	}
	if len(regions) != 2 || regions[0] != "Asia" || regions[1] != "Europe" {
		t.Fatalf("unexpected regions %v", regions)
	}
}

func sampleFS() fstest.MapFS {
	return fstest.MapFS{
		"Europe/Europe-France.png":         {Data: []byte("png")},
		"Europe/Europe-Czech_Republic.png": {Data: []byte("png")},
		"Europe/README.txt":                {Data: []byte("notes")},
		"Europe/broken.png":                {Data: []byte("png")},
		"Europe/Asia-Japan.png":            {Data: []byte("png")},
		"Asia/Asia-South_Korea.png":        {Data: []byte("png")},
		".hidden/x.png":                    {Data: []byte("png")},
	}
}
