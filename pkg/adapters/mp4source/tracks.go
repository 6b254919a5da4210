package mp4source

import (
	"fmt"
	"sort"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framescrub/pkg/adapters/codecdetect"
	"github.com/user/framescrub/pkg/ports"
)

// sample locates one access unit. Progressive samples are read from the
// file on demand; fragmented samples keep the bytes decoded with the moof.
type sample struct {
	dts    int64
	pts    int64
	dur    int64
	key    bool
	offset int64
	size   int
	data   []byte
}

type track struct {
	info    ports.StreamInfo
	samples []sample
	// annexB converts length-prefixed H.264 NAL units and prepends
	// paramSets on keyframes.
	annexB    bool
	paramSets []byte
}

// newTrack reads the metadata shared by progressive and fragmented tracks.
func newTrack(trak *mp4.TrakBox) *track {
	t := &track{}
	t.info.Index = int(trak.Tkhd.TrackID)
	t.info.Codec = string(codecdetect.TrackCodec(trak))

	switch codecdetect.TrackKind(trak) {
	case codecdetect.KindVideo:
		t.info.Kind = ports.KindVideo
	case codecdetect.KindAudio:
		t.info.Kind = ports.KindAudio
	default:
		t.info.Kind = ports.KindOther
	}

	timescale := int64(1000)
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		timescale = int64(trak.Mdia.Mdhd.Timescale)
		t.info.Duration = int64(trak.Mdia.Mdhd.Duration)
	}
	t.info.TimeBase = ports.Rational{Num: 1, Den: timescale}

	t.info.Width = int(trak.Tkhd.Width >> 16)
	t.info.Height = int(trak.Tkhd.Height >> 16)

	if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			vse, ok := child.(*mp4.VisualSampleEntryBox)
			if !ok {
				continue
			}
			if vse.Width > 0 && vse.Height > 0 {
				t.info.Width = int(vse.Width)
				t.info.Height = int(vse.Height)
			}
			if vse.AvcC != nil {
				t.annexB = true
				t.paramSets = parameterSets(vse.AvcC)
				t.info.Extradata = t.paramSets
			}
			if vse.Av1C != nil {
				t.info.Extradata = vse.Av1C.CodecConfRec.ConfigOBUs
			}
		}
	}
	return t
}

// finish derives what can only be known once every sample is listed.
func (t *track) finish() {
	t.info.FrameCount = len(t.samples)
	if len(t.samples) == 0 {
		return
	}

	if t.info.Duration == 0 {
		last := t.samples[len(t.samples)-1]
		t.info.Duration = last.dts + last.dur - t.samples[0].dts
	}

	for i := 1; i < len(t.samples); i++ {
		if t.samples[i].pts < t.samples[i-1].pts {
			t.info.Reordered = true
			break
		}
	}

	if t.info.Kind == ports.KindVideo {
		if dur := commonDuration(t.samples); dur > 0 {
			t.info.FrameRate = ports.Rational{Num: t.info.TimeBase.Den, Den: dur}.Reduce()
		}
		if t.info.Reordered {
			t.info.ReorderDepth = reorderDepth(t.samples)
		}
	}
}

// reorderDepth returns the largest distance, within one GOP, between a
// sample's decode position and its presentation rank. Holding that many
// pictures back is enough to emit every GOP in presentation order.
func reorderDepth(samples []sample) int {
	depth := 0
	for start := 0; start < len(samples); {
		end := start + 1
		for end < len(samples) && !samples[end].key {
			end++
		}

		gop := samples[start:end]
		order := make([]int, len(gop))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return gop[order[a]].pts < gop[order[b]].pts })
		for rank, pos := range order {
			depth = max(depth, pos-rank)
		}
		start = end
	}
	return depth
}

// commonDuration returns the most frequent sample duration, which is the
// nominal frame period of a constant or near-constant frame rate stream.
func commonDuration(samples []sample) int64 {
	counts := make(map[int64]int)
	var best int64
	for _, s := range samples {
		if s.dur <= 0 {
			continue
		}
		counts[s.dur]++
		if counts[s.dur] > counts[best] || (counts[s.dur] == counts[best] && s.dur < best) {
			best = s.dur
		}
	}
	return best
}

// progressiveSamples lists a track's samples from its sample table.
func progressiveSamples(t *track, trak *mp4.TrakBox) error {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return fmt.Errorf("track %d: no sample table", t.info.Index)
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil || stbl.Stsc == nil || stbl.Stts == nil {
		return fmt.Errorf("track %d: incomplete sample table", t.info.Index)
	}

	var sync map[uint32]bool
	if stbl.Stss != nil {
		sync = make(map[uint32]bool, len(stbl.Stss.SampleNumber))
		for _, nr := range stbl.Stss.SampleNumber {
			sync[nr] = true
		}
	}

	count := stbl.Stsz.SampleNumber
	t.samples = make([]sample, 0, count)

	curChunk := -1
	var offset int64
	var prevSize int64
	for nr := uint32(1); nr <= count; nr++ {
		chunkNr, firstInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
		if err != nil {
			return fmt.Errorf("track %d sample %d: %w", t.info.Index, nr, err)
		}
		if chunkNr != curChunk {
			base, err := chunkOffset(stbl, chunkNr)
			if err != nil {
				return fmt.Errorf("track %d sample %d: %w", t.info.Index, nr, err)
			}
			offset = base
			for s := firstInChunk; s < int(nr); s++ {
				offset += int64(stbl.Stsz.GetSampleSize(s))
			}
			curChunk = chunkNr
		} else {
			offset += prevSize
		}
		size := int64(stbl.Stsz.GetSampleSize(int(nr)))
		prevSize = size

		dts, dur := stbl.Stts.GetDecodeTime(nr)
		pts := int64(dts)
		if stbl.Ctts != nil {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}

		t.samples = append(t.samples, sample{
			dts:    int64(dts),
			pts:    pts,
			dur:    int64(dur),
			key:    sync == nil || sync[nr],
			offset: offset,
			size:   int(size),
		})
	}
	return nil
}

func chunkOffset(stbl *mp4.StblBox, chunkNr int) (int64, error) {
	if stbl.Stco != nil {
		off, err := stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return 0, fmt.Errorf("chunk offset: %w", err)
		}
		return int64(off), nil
	}
	if stbl.Co64 != nil {
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return 0, fmt.Errorf("chunk %d out of range", chunkNr)
		}
		return int64(stbl.Co64.ChunkOffset[chunkNr-1]), nil
	}
	return 0, fmt.Errorf("no stco or co64 box")
}

// fragmentedSamples lists a track's samples from every fragment.
func fragmentedSamples(t *track, mp4File *mp4.File) error {
	var trex *mp4.TrexBox
	if mp4File.Init.Moov.Mvex != nil {
		for _, tr := range mp4File.Init.Moov.Mvex.Trexs {
			if int(tr.TrackID) == t.info.Index {
				trex = tr
				break
			}
		}
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || len(frag.Moof.Trafs) == 0 {
				continue
			}
			// GetFullSamples finds the track's traf itself when given a
			// trex; without one it reads the first traf only.
			if trex == nil && int(frag.Moof.Traf.Tfhd.TrackID) != t.info.Index {
				continue
			}

			full, err := frag.GetFullSamples(trex)
			if err != nil {
				return fmt.Errorf("track %d: get samples: %w", t.info.Index, err)
			}
			for _, fs := range full {
				dts := int64(fs.DecodeTime)
				t.samples = append(t.samples, sample{
					dts:  dts,
					pts:  dts + int64(fs.CompositionTimeOffset),
					dur:  int64(fs.Dur),
					key:  !mp4.DecodeSampleFlags(fs.Flags).SampleIsNonSync,
					size: len(fs.Data),
					data: fs.Data,
				})
			}
		}
	}
	return nil
}
