// Package pipeline wires the four analysis stages together: header parsing
// locates the main and mission segments, disassembly turns each into a
// DecompiledData stream, flow analysis builds the global BlockList, and
// per-procedure statement trees are reduced from it. Code generation is
// left to the caller (see cmd/scmcc), since emitting machine code needs a
// concrete import table the pipeline itself has no opinion about.
package pipeline

import (
	"fmt"

	"scmcc/internal/cmddb"
	"scmcc/internal/disasm"
	"scmcc/internal/flow"
	"scmcc/internal/header"
	"scmcc/internal/stmt"
	"scmcc/log"
)

// Result is everything downstream stages (codegen, reporting) need.
type Result struct {
	Header   *header.Header
	Main     *disasm.Disassembler
	Missions []*disasm.Disassembler
	Blocks   *flow.BlockList
	Trees    map[int]*stmt.Tree // keyed by flow.ProcEntry.ID
}

// Analyze runs header parsing through statement-tree reduction over a
// complete SCM image.
func Analyze(buf []byte, v header.Version, db cmddb.DB) (*Result, error) {
	h, err := header.Parse(buf, v)
	if err != nil {
		return nil, fmt.Errorf("pipeline: header: %w", err)
	}
	log.Info(log.ModuleHeader, "parsed header", "version", v, "models", len(h.Models), "missions", len(h.MissionOffsets))

	if h.MainSegmentOffset > len(buf) {
		return nil, fmt.Errorf("pipeline: main segment offset %d beyond buffer of length %d", h.MainSegmentOffset, len(buf))
	}
	main := disasm.NewMain(buf[h.MainSegmentOffset:], db)
	main.RunAnalyzer(0)
	mainData := main.Disassembly()

	missions := make([]*disasm.Disassembler, len(h.MissionOffsets))
	missionSegs := make([]flow.SegmentInput, len(h.MissionOffsets))
	for i, off := range h.MissionOffsets {
		base := h.MainSegmentOffset + int(off)
		if base > len(buf) {
			return nil, fmt.Errorf("pipeline: mission %d offset %d beyond buffer", i, base)
		}
		m := disasm.NewMission(buf[base:], db, main)
		m.RunAnalyzer(0)
		data := m.Disassembly()
		missions[i] = m
		missionSegs[i] = flow.SegmentInput{
			Seg:     flow.SegMission,
			Index:   i,
			Data:    data,
			Resolve: func(off int) (int, bool) { return m.GetDataIndex(off) },
		}
	}

	in := flow.Input{
		DB: db,
		Main: flow.SegmentInput{
			Seg:     flow.SegMain,
			Index:   0,
			Data:    mainData,
			Resolve: func(off int) (int, bool) { return main.GetDataIndex(off) },
		},
		Missions: missionSegs,
		MissionEntryIndex: func(missionIndex int32) (int, bool) {
			if missionIndex < 0 || int(missionIndex) >= len(missions) {
				return 0, false
			}
			return int(missionIndex), true
		},
	}

	bl, err := flow.Build(in)
	if err != nil {
		return nil, fmt.Errorf("pipeline: flow: %w", err)
	}
	log.Info(log.ModuleFlow, "built block list", "blocks", len(bl.Blocks), "procs", len(bl.Procs))

	trees := make(map[int]*stmt.Tree, len(bl.Procs))
	for i := range bl.Procs {
		trees[bl.Procs[i].ID] = stmt.Reduce(bl, &bl.Procs[i])
	}

	return &Result{Header: h, Main: main, Missions: missions, Blocks: bl, Trees: trees}, nil
}
