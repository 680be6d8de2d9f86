package viz

import "testing"

func TestLookupColorMapPresets(t *testing.T) {
	for _, name := range ColorMapPresets() {
		t.Run(name, func(t *testing.T) {
			used, cm := LookupColorMap(name)
			if used != name {
				t.Errorf("used = %q, want %q", used, name)
			}
			if cm == nil {
				t.Fatal("nil color map")
			}
			cm.SetMin(0)
			cm.SetMax(10)
			for _, v := range []float64{0, 2.5, 5, 7.5, 10} {
				if _, err := cm.At(v); err != nil {
					t.Errorf("At(%g) failed: %v", v, err)
				}
			}
		})
	}
}

func TestLookupColorMapFallsBack(t *testing.T) {
	used, cm := LookupColorMap("No Such Preset")
	if used != DefaultColorMap {
		t.Errorf("used = %q, want %q", used, DefaultColorMap)
	}
	if cm == nil {
		t.Fatal("nil color map")
	}
}

func TestPaletteMapRange(t *testing.T) {
	m := newPaletteMap(grayscale(16))
	m.SetMin(0)
	m.SetMax(1)

	lo, err := m.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	hi, err := m.At(1)
	if err != nil {
		t.Fatalf("At(1) failed: %v", err)
	}
	lr, lg, lb, _ := lo.RGBA()
	hr, hg, hb, _ := hi.RGBA()
	if lr != 0 || lg != 0 || lb != 0 {
		t.Errorf("At(0) = %v, want black", lo)
	}
	if hr != 0xffff || hg != 0xffff || hb != 0xffff {
		t.Errorf("At(1) = %v, want white", hi)
	}

	if _, err := m.At(1.5); err == nil {
		t.Error("expected error for out of range value")
	}
}

func TestPaletteMapUnsetRange(t *testing.T) {
	m := newPaletteMap(grayscale(16))
	if _, err := m.At(0.5); err == nil {
		t.Error("expected error before min/max are set")
	}
}

func TestPaletteMapPalette(t *testing.T) {
	m := newPaletteMap(grayscale(16))
	if got := len(m.Palette(4).Colors()); got != 4 {
		t.Errorf("Palette(4) has %d colors, want 4", got)
	}
	if got := len(m.Palette(100).Colors()); got != 16 {
		t.Errorf("Palette(100) has %d colors, want 16", got)
	}
}

func TestRainbowPresetsSpanBlueToRed(t *testing.T) {
	for _, name := range []string{"Blue to Red Rainbow", "Jet"} {
		t.Run(name, func(t *testing.T) {
			_, cm := LookupColorMap(name)
			cm.SetMin(0)
			cm.SetMax(1)

			lo, err := cm.At(0)
			if err != nil {
				t.Fatalf("At(0) failed: %v", err)
			}
			hi, err := cm.At(1)
			if err != nil {
				t.Fatalf("At(1) failed: %v", err)
			}
			lr, _, lb, _ := lo.RGBA()
			hr, _, hb, _ := hi.RGBA()
			if lb <= lr {
				t.Errorf("At(0) = %v, want blue dominant over red", lo)
			}
			if hr <= hb {
				t.Errorf("At(1) = %v, want red dominant over blue", hi)
			}
		})
	}
}
