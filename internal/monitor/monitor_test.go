package monitor

import (
	"testing"

	"github.com/vn18/simulate/internal/mem"
)

func TestBuildAssemblesBringUpImage(tt *testing.T) {
	tt.Parallel()

	img, err := Build()
	if err != nil {
		tt.Fatalf("Build: %s", err)
	}

	if len(img.FaultHandler.Code) == 0 {
		tt.Error("want fault handler code, got none")
	}

	if _, ok := img.Traps[TrapHalt]; !ok {
		tt.Error("want a TRAP 0 (halt) routine")
	}

	if _, ok := img.Traps[TrapOut]; !ok {
		tt.Error("want a TRAP 3 (out) routine")
	}
}

func TestLoadToInstallsTrapTableAndFaultEntry(tt *testing.T) {
	tt.Parallel()

	img, err := Build()
	if err != nil {
		tt.Fatalf("Build: %s", err)
	}

	sys := mem.NewSystem()
	tt.Cleanup(sys.Stop)

	if err := img.LoadTo(sys); err != nil {
		tt.Fatalf("LoadTo: %s", err)
	}

	snap := sys.Snapshot()

	if snap[mem.FaultEntryAddr] != img.FaultHandler.Orig {
		tt.Errorf("want mem[%d]=%d, got %d", mem.FaultEntryAddr, img.FaultHandler.Orig, snap[mem.FaultEntryAddr])
	}

	haltCell := mem.TrapTableAddr + 0
	if snap[haltCell] != img.Traps[TrapHalt].Orig {
		tt.Errorf("want mem[%d]=%d, got %d", haltCell, img.Traps[TrapHalt].Orig, snap[haltCell])
	}

	outCell := mem.TrapTableAddr + 3
	if snap[outCell] != img.Traps[TrapOut].Orig {
		tt.Errorf("want mem[%d]=%d, got %d", outCell, img.Traps[TrapOut].Orig, snap[outCell])
	}
}

func TestBuildParagraphDemoAssembles(tt *testing.T) {
	tt.Parallel()

	obj, err := BuildParagraphDemo()
	if err != nil {
		tt.Fatalf("BuildParagraphDemo: %s", err)
	}

	if len(obj.Code) == 0 {
		tt.Error("want non-empty paragraph demo code")
	}

	if obj.Orig != ParagraphDemoOrig {
		tt.Errorf("want orig %d, got %d", ParagraphDemoOrig, obj.Orig)
	}
}

func TestLoadParagraphWritesEOTTerminatedText(tt *testing.T) {
	tt.Parallel()

	sys := mem.NewSystem()
	tt.Cleanup(sys.Stop)

	if err := LoadParagraph(sys, "hi"); err != nil {
		tt.Fatalf("LoadParagraph: %s", err)
	}

	snap := sys.Snapshot()

	if snap[mem.ParagraphAddr] != 'h' || snap[mem.ParagraphAddr+1] != 'i' {
		tt.Fatalf("want \"hi\" at %d, got %c%c", mem.ParagraphAddr, snap[mem.ParagraphAddr], snap[mem.ParagraphAddr+1])
	}

	if snap[mem.ParagraphAddr+2] != 0x04 {
		tt.Errorf("want EOT at %d, got %#x", mem.ParagraphAddr+2, snap[mem.ParagraphAddr+2])
	}
}
