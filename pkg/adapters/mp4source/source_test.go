package mp4source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framescrub/pkg/mocks"
	"github.com/user/framescrub/pkg/ports"
	"github.com/user/framescrub/pkg/video"
)

const (
	videoTrackID = 1
	audioTrackID = 2
	fixtureFPS   = 30
	audioRate    = 48000
)

// buildFixture writes a fragmented MP4 with an AV1 video track of frames
// samples at 30 fps, keyframes where keyframes[i] is set, and an audio
// track with one sample per video frame period.
func buildFixture(t *testing.T, keyframes []bool) []byte {
	t.Helper()

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(fixtureFPS, "video", "en")
	init.AddEmptyTrack(audioRate, "audio", "en")

	vtrak := init.Moov.Traks[0]
	av01 := mp4.CreateVisualSampleEntryBox("av01", 64, 48, &mp4.Av1CBox{
		CodecConfRec: av1.CodecConfRec{
			Version:            1,
			SeqLevelIdx0:       8,
			ChromaSubsamplingX: 1,
			ChromaSubsamplingY: 1,
		},
	})
	vtrak.Mdia.Minf.Stbl.Stsd.AddChild(av01)
	vtrak.Tkhd.Width = mp4.Fixed32(64 << 16)
	vtrak.Tkhd.Height = mp4.Fixed32(48 << 16)

	vfrag, err := mp4.CreateFragment(1, videoTrackID)
	if err != nil {
		t.Fatalf("create video fragment: %v", err)
	}
	afrag, err := mp4.CreateFragment(2, audioTrackID)
	if err != nil {
		t.Fatalf("create audio fragment: %v", err)
	}

	for i, key := range keyframes {
		flags := mp4.NonSyncSampleFlags
		if key {
			flags = mp4.SyncSampleFlags
		}
		vfrag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: flags, Size: 2, Dur: 1},
			DecodeTime: uint64(i),
			Data:       []byte{0x12, byte(i)},
		})
		afrag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: mp4.SyncSampleFlags, Size: 1, Dur: audioRate / fixtureFPS},
			DecodeTime: uint64(i * audioRate / fixtureFPS),
			Data:       []byte{byte(0x80 + i)},
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "av01", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := vfrag.Encode(&buf); err != nil {
		t.Fatalf("encode video fragment: %v", err)
	}
	if err := afrag.Encode(&buf); err != nil {
		t.Fatalf("encode audio fragment: %v", err)
	}
	return buf.Bytes()
}

var eightFrames = []bool{true, false, false, false, true, false, false, false}

func openFixture(t *testing.T, opts Options) *Handle {
	t.Helper()
	h, err := New(opts).OpenBytes(buildFixture(t, eightFrames))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHandle_Streams(t *testing.T) {
	h := openFixture(t, Options{})

	streams := h.Streams()
	if len(streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(streams))
	}

	v := streams[0]
	if v.Index != videoTrackID || v.Kind != ports.KindVideo {
		t.Errorf("expected video stream %d, got %+v", videoTrackID, v)
	}
	if v.Codec != "av1" {
		t.Errorf("expected codec av1, got %q", v.Codec)
	}
	if v.Width != 64 || v.Height != 48 {
		t.Errorf("expected 64x48, got %dx%d", v.Width, v.Height)
	}
	if v.TimeBase != (ports.Rational{Num: 1, Den: fixtureFPS}) {
		t.Errorf("expected time base 1/30, got %s", v.TimeBase)
	}
	if v.FrameRate != (ports.Rational{Num: fixtureFPS, Den: 1}) {
		t.Errorf("expected frame rate 30/1, got %s", v.FrameRate)
	}
	if v.FrameCount != 8 {
		t.Errorf("expected 8 frames, got %d", v.FrameCount)
	}
	if v.Duration != 8 {
		t.Errorf("expected duration 8, got %d", v.Duration)
	}
	if v.Reordered {
		t.Error("expected stream without reordering")
	}

	a := streams[1]
	if a.Index != audioTrackID || a.Kind != ports.KindAudio {
		t.Errorf("expected audio stream %d, got %+v", audioTrackID, a)
	}
}

func TestHandle_ReadPacketInterleaves(t *testing.T) {
	h := openFixture(t, Options{})

	var order []int
	var videoKeys []bool
	for {
		pkt, err := h.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadPacket failed: %v", err)
		}
		order = append(order, pkt.StreamIndex)
		if pkt.StreamIndex == videoTrackID {
			videoKeys = append(videoKeys, pkt.Keyframe)
			frame := len(videoKeys) - 1
			if pkt.DTS != int64(frame) || pkt.PTS != int64(frame) {
				t.Errorf("frame %d: expected pts/dts %d, got %d/%d", frame, frame, pkt.PTS, pkt.DTS)
			}
			if !bytes.Equal(pkt.Data, []byte{0x12, byte(frame)}) {
				t.Errorf("frame %d: unexpected data %v", frame, pkt.Data)
			}
		}
	}

	if len(order) != 16 {
		t.Fatalf("expected 16 packets, got %d", len(order))
	}
	for i, idx := range order {
		want := videoTrackID
		if i%2 == 1 {
			want = audioTrackID
		}
		if idx != want {
			t.Errorf("packet %d: expected stream %d, got %d", i, want, idx)
		}
	}
	for i, key := range videoKeys {
		if key != eightFrames[i] {
			t.Errorf("frame %d: expected keyframe=%v, got %v", i, eightFrames[i], key)
		}
	}
}

func TestHandle_SeekTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		ts       int64
		backward bool
		wantDTS  int64
		wantErr  error
	}{
		{"backward inside second GOP", 6, true, 4, nil},
		{"backward onto keyframe", 4, true, 4, nil},
		{"backward inside first GOP", 3, true, 0, nil},
		{"forward to next keyframe", 1, false, 4, nil},
		{"forward onto keyframe", 0, false, 0, nil},
		{"forward past last keyframe", 5, false, 0, ErrNoKeyframe},
		{"backward before first sample", -1, true, 0, ErrNoKeyframe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := openFixture(t, Options{})

			err := h.SeekTimestamp(videoTrackID, tt.ts, tt.backward)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SeekTimestamp failed: %v", err)
			}

			pkt, err := h.ReadPacket()
			if err != nil {
				t.Fatalf("ReadPacket failed: %v", err)
			}
			if pkt.StreamIndex != videoTrackID || pkt.DTS != tt.wantDTS || !pkt.Keyframe {
				t.Errorf("expected video keyframe at dts %d, got stream %d dts %d key %v",
					tt.wantDTS, pkt.StreamIndex, pkt.DTS, pkt.Keyframe)
			}
		})
	}
}

func TestHandle_UnknownStream(t *testing.T) {
	h := openFixture(t, Options{})

	if err := h.SeekTimestamp(9, 0, true); !errors.Is(err, ErrNoStream) {
		t.Errorf("expected ErrNoStream from seek, got %v", err)
	}
	if _, err := h.Decoder(9); !errors.Is(err, ErrNoStream) {
		t.Errorf("expected ErrNoStream from decoder, got %v", err)
	}
}

func TestHandle_Decoder(t *testing.T) {
	t.Run("no factory", func(t *testing.T) {
		h := openFixture(t, Options{})
		if _, err := h.Decoder(videoTrackID); !errors.Is(err, ErrNoDecoder) {
			t.Errorf("expected ErrNoDecoder, got %v", err)
		}
	})

	t.Run("cached and closed", func(t *testing.T) {
		var created []*mocks.Decoder
		var infos []ports.StreamInfo
		h, err := New(Options{NewDecoder: func(info ports.StreamInfo) (ports.Decoder, error) {
			dec := mocks.NewDecoder(0, info.Width, info.Height)
			created = append(created, dec)
			infos = append(infos, info)
			return dec, nil
		}}).OpenBytes(buildFixture(t, eightFrames))
		if err != nil {
			t.Fatalf("OpenBytes failed: %v", err)
		}

		first, err := h.Decoder(videoTrackID)
		if err != nil {
			t.Fatalf("Decoder failed: %v", err)
		}
		second, err := h.Decoder(videoTrackID)
		if err != nil {
			t.Fatalf("Decoder failed: %v", err)
		}
		if first != second || len(created) != 1 {
			t.Errorf("expected one cached decoder, created %d", len(created))
		}
		if infos[0].Codec != "av1" {
			t.Errorf("expected factory to see codec av1, got %q", infos[0].Codec)
		}

		if err := h.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if !created[0].Closed {
			t.Error("expected decoder to be closed with the handle")
		}
	})
}

func TestOpen_IndexesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, buildFixture(t, eightFrames), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	source := New(Options{NewDecoder: func(info ports.StreamInfo) (ports.Decoder, error) {
		return mocks.NewDecoder(0, info.Width, info.Height), nil
	}})

	f, err := video.Open(context.Background(), source, path, video.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if f.FrameCount() != 8 {
		t.Errorf("expected 8 frames, got %d", f.FrameCount())
	}
	if got := f.Index().Keyframes(); len(got) != 2 || got[0] != 0 || got[1] != 4 {
		t.Errorf("expected keyframes [0 4], got %v", got)
	}
	if f.MsPerFrame() < 33.3 || f.MsPerFrame() > 33.4 {
		t.Errorf("expected about 33.3ms per frame, got %f", f.MsPerFrame())
	}

	clip, err := f.NewClip(video.ClipOptions{})
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	defer clip.Close()

	if err := clip.Seek(6); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if clip.CurrentFrame() != 6 || clip.PTS() != 6 {
		t.Errorf("expected frame 6 at pts 6, got frame %d pts %d", clip.CurrentFrame(), clip.PTS())
	}
}

func TestOpen_ThroughFileSystem(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("clip.mp4", buildFixture(t, eightFrames))

	source := New(Options{FS: fs, NewDecoder: func(info ports.StreamInfo) (ports.Decoder, error) {
		return mocks.NewDecoder(0, info.Width, info.Height), nil
	}})

	f, err := video.Open(context.Background(), source, "clip.mp4", video.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if f.FrameCount() != 8 {
		t.Errorf("expected 8 frames, got %d", f.FrameCount())
	}
	// One handle for playback and one for the probe.
	if got := fs.Opened["clip.mp4"]; got != 2 {
		t.Errorf("expected 2 opens, got %d", got)
	}

	if _, err := source.Open("other.mp4"); err == nil {
		t.Error("expected error for a file the file system does not have")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := New(Options{}).Open(filepath.Join(t.TempDir(), "missing.mp4"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAvccToAnnexB(t *testing.T) {
	in := []byte{0, 0, 0, 2, 0x65, 0x88, 0, 0, 0, 1, 0x41}
	want := []byte{0, 0, 0, 1, 0x65, 0x88, 0, 0, 0, 1, 0x41}

	if got := avccToAnnexB(in); !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	truncated := []byte{0, 0, 0, 9, 0x65}
	if got := avccToAnnexB(truncated); len(got) != 0 {
		t.Errorf("expected truncated NAL unit to be dropped, got %v", got)
	}
}

func TestParameterSets(t *testing.T) {
	avcC := &mp4.AvcCBox{}
	avcC.SPSnalus = [][]byte{{0x67, 0x42}}
	avcC.PPSnalus = [][]byte{{0x68, 0xce}}

	want := []byte{0, 0, 0, 1, 0x67, 0x42, 0, 0, 0, 1, 0x68, 0xce}
	if got := parameterSets(avcC); !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// buildMuxedFixture writes a fragmented MP4 whose fragments carry both
// tracks, audio traf first. Video sample i has composition offset
// offsets[i] and each fragment holds perFragment video samples.
func buildMuxedFixture(t *testing.T, offsets []int32, perFragment int) []byte {
	t.Helper()

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(fixtureFPS, "video", "en")
	init.AddEmptyTrack(audioRate, "audio", "en")

	vtrak := init.Moov.Traks[0]
	vtrak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("av01", 64, 48, &mp4.Av1CBox{
		CodecConfRec: av1.CodecConfRec{Version: 1, ChromaSubsamplingX: 1, ChromaSubsamplingY: 1},
	}))

	var buf bytes.Buffer
	if err := mp4.NewFtyp("isom", 0x200, []string{"isom", "av01"}).Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}

	for start := 0; start < len(offsets); start += perFragment {
		end := min(start+perFragment, len(offsets))
		frag, err := mp4.CreateMultiTrackFragment(uint32(start/perFragment+1), []uint32{audioTrackID, videoTrackID})
		if err != nil {
			t.Fatalf("create fragment: %v", err)
		}
		for i := start; i < end; i++ {
			err := frag.AddFullSampleToTrack(mp4.FullSample{
				Sample:     mp4.Sample{Flags: mp4.SyncSampleFlags, Size: 1, Dur: audioRate / fixtureFPS},
				DecodeTime: uint64(i * audioRate / fixtureFPS),
				Data:       []byte{byte(0x80 + i)},
			}, audioTrackID)
			if err != nil {
				t.Fatalf("add audio sample: %v", err)
			}
		}
		for i := start; i < end; i++ {
			flags := mp4.NonSyncSampleFlags
			if i == start {
				flags = mp4.SyncSampleFlags
			}
			err := frag.AddFullSampleToTrack(mp4.FullSample{
				Sample:     mp4.Sample{Flags: flags, Size: 2, Dur: 1, CompositionTimeOffset: offsets[i]},
				DecodeTime: uint64(i),
				Data:       []byte{0x12, byte(i)},
			}, videoTrackID)
			if err != nil {
				t.Fatalf("add video sample: %v", err)
			}
		}
		if err := frag.Encode(&buf); err != nil {
			t.Fatalf("encode fragment: %v", err)
		}
	}
	return buf.Bytes()
}

func TestHandle_MuxedFragmentsAudioFirst(t *testing.T) {
	h, err := New(Options{}).OpenBytes(buildMuxedFixture(t, make([]int32, 8), 4))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	defer h.Close()

	streams := h.Streams()
	if len(streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(streams))
	}
	if v := streams[0]; v.Kind != ports.KindVideo || v.FrameCount != 8 {
		t.Fatalf("expected 8 video frames, got %+v", v)
	}
	if a := streams[1]; a.FrameCount != 8 {
		t.Errorf("expected 8 audio samples, got %d", a.FrameCount)
	}

	var frames int
	for {
		pkt, err := h.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadPacket failed: %v", err)
		}
		if pkt.StreamIndex != videoTrackID {
			continue
		}
		if !bytes.Equal(pkt.Data, []byte{0x12, byte(frames)}) {
			t.Errorf("frame %d: unexpected data %v", frames, pkt.Data)
		}
		if pkt.Keyframe != (frames%4 == 0) {
			t.Errorf("frame %d: unexpected keyframe=%v", frames, pkt.Keyframe)
		}
		frames++
	}
	if frames != 8 {
		t.Errorf("expected 8 video packets, got %d", frames)
	}
}

func TestHandle_ReorderDepthFromCompositionOffsets(t *testing.T) {
	// Decode order I P B b b presenting at 2 6 4 3 5.
	h, err := New(Options{}).OpenBytes(buildMuxedFixture(t, []int32{2, 5, 2, 0, 1}, 5))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	defer h.Close()

	v := h.Streams()[0]
	if !v.Reordered {
		t.Error("expected a reordered stream")
	}
	if v.ReorderDepth != 2 {
		t.Errorf("expected reorder depth 2, got %d", v.ReorderDepth)
	}
}

func TestReorderDepth(t *testing.T) {
	tests := []struct {
		name string
		pts  []int64
		keys []int
		want int
	}{
		{"in order", []int64{0, 1, 2, 3}, []int{0}, 0},
		{"b-frames", []int64{0, 3, 1, 2}, []int{0}, 1},
		{"b-pyramid", []int64{0, 4, 2, 1, 3}, []int{0}, 2},
		{"deepest GOP wins", []int64{0, 2, 1, 3, 7, 5, 4, 6}, []int{0, 3}, 2},
		{"leading b-frames", []int64{2, 0, 1, 5, 3, 4}, []int{0, 3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]sample, len(tt.pts))
			for i, pts := range tt.pts {
				samples[i] = sample{dts: int64(i), pts: pts}
			}
			for _, k := range tt.keys {
				samples[k].key = true
			}
			if got := reorderDepth(samples); got != tt.want {
				t.Errorf("reorderDepth() = %d, want %d", got, tt.want)
			}
		})
	}
}
