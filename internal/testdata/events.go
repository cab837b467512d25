// Package testdata writes small event datasets for tests and for the
// sample generator.
package testdata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/cutflow/hist"
)

// Event is one row of a channel file. Collections are plain repeated
// columns so every leaf is addressable by its flat name.
type Event struct {
	ElectronPt        []float32 `parquet:"Electron_Pt"`
	ElectronEta       []float32 `parquet:"Electron_Eta"`
	ElectronPhi       []float32 `parquet:"Electron_Phi"`
	ElectronMass      []float32 `parquet:"Electron_Mass"`
	ElectronID        []int32   `parquet:"Electron_ID"`
	ElectronIsolation []float32 `parquet:"Electron_Isolation"`
	ElectronRecoSF    []float32 `parquet:"Electron_recoSF"`
	ElectronLooseSF   []float32 `parquet:"Electron_looseSF"`
	ElectronMediumSF  []float32 `parquet:"Electron_mediumSF"`
	ElectronTightSF   []float32 `parquet:"Electron_tightSF"`

	MuonPt              []float32 `parquet:"Muon_Pt"`
	MuonEta             []float32 `parquet:"Muon_Eta"`
	MuonPhi             []float32 `parquet:"Muon_Phi"`
	MuonID              []int32   `parquet:"Muon_ID"`
	MuonIsoID           []int32   `parquet:"Muon_isoID"`
	MuonTriggerSF       []float32 `parquet:"Muon_triggerSF"`
	MuonTightSF         []float32 `parquet:"Muon_tightSF"`
	MuonTightIsoTightSF []float32 `parquet:"Muon_tightIsoTightSF"`

	JetPt          []float32 `parquet:"Jet_Pt"`
	JetEta         []float32 `parquet:"Jet_Eta"`
	JetPhi         []float32 `parquet:"Jet_Phi"`
	JetMass        []float32 `parquet:"Jet_Mass"`
	JetCSVScore    []float32 `parquet:"Jet_CSVScore"`
	JetTrueFlavour []int32   `parquet:"Jet_TrueFlavour"`
	JetLooseCSVSF  []float32 `parquet:"Jet_looseCSVbTagSF"`
	JetMediumCSVSF []float32 `parquet:"Jet_mediumCSVbTagSF"`
	JetTightCSVSF  []float32 `parquet:"Jet_tightCSVbTagSF"`

	FatJetPt      []float32 `parquet:"FatJet_Pt"`
	FatJetEta     []float32 `parquet:"FatJet_Eta"`
	FatJetPhi     []float32 `parquet:"FatJet_Phi"`
	FatJetMass    []float32 `parquet:"FatJet_Mass"`
	FatJetTau1    []float32 `parquet:"FatJet_Njettiness1"`
	FatJetTau2    []float32 `parquet:"FatJet_Njettiness2"`
	FatJetTau3    []float32 `parquet:"FatJet_Njettiness3"`
	FatJetDeepAK8 []float32 `parquet:"FatJet_DeepAK8VsHiggs"`

	METPt  float32 `parquet:"MET_Pt"`
	METPhi float32 `parquet:"MET_Phi"`

	EventNumber     int64   `parquet:"Misc_eventNumber"`
	TrueInteraction float32 `parquet:"Misc_TrueInteraction"`

	HTagFJ1 float32 `parquet:"ML_HTagFJ1"`
	DNN200  float32 `parquet:"ML_DNN200"`

	PrefireWeight float32 `parquet:"Weight_prefire"`
}

// Encode writes events to w, starting a new row group every groupSize
// events. A groupSize of zero writes a single row group.
func Encode(w io.Writer, events []Event, groupSize int) error {
	writer := parquet.NewGenericWriter[Event](w)
	if groupSize <= 0 {
		groupSize = len(events)
	}
	for start := 0; start < len(events); start += groupSize {
		end := min(start+groupSize, len(events))
		if _, err := writer.Write(events[start:end]); err != nil {
			return fmt.Errorf("failed to write events: %w", err)
		}
		if err := writer.Flush(); err != nil {
			return fmt.Errorf("failed to flush row group: %w", err)
		}
	}
	return writer.Close()
}

// WriteEvents writes events to path.
func WriteEvents(path string, events []Event, groupSize int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, events, groupSize); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteDataset creates dir with one channel file and, when meta is not
// nil, the metadata file. It returns dir.
func WriteDataset(t testing.TB, dir, channel string, events []Event, meta *hist.File, groupSize int) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create dataset dir: %v", err)
	}
	if err := WriteEvents(filepath.Join(dir, channel+".parquet"), events, groupSize); err != nil {
		t.Fatalf("failed to write events: %v", err)
	}
	if meta != nil {
		if err := meta.Save(filepath.Join(dir, "meta.msgpack")); err != nil {
			t.Fatalf("failed to write metadata: %v", err)
		}
	}
	return dir
}

// Electrons returns n events with one tight, isolated electron each. The
// i-th electron has transverse momentum ptOf(i).
func Electrons(n int, ptOf func(i int) float32) []Event {
	events := make([]Event, n)
	for i := range events {
		events[i] = Event{
			ElectronPt:        []float32{ptOf(i)},
			ElectronEta:       []float32{0.5},
			ElectronPhi:       []float32{1.0},
			ElectronMass:      []float32{0.000511},
			ElectronID:        []int32{3},
			ElectronIsolation: []float32{0.05},
			EventNumber:       int64(i),
		}
	}
	return events
}
