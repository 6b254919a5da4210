package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Open and probe (info)
		"Finished probing %s in %s": "%s のプローブが %s で完了しました",

		// Probe (debug)
		"Probing stream %d, capacity %d frames":              "ストリーム %d をプローブ中、容量 %d フレーム",
		"Indexed %d frames, %d keyframes":                    "%d フレーム、%d キーフレームをインデックス化しました",
		"First packet is not a keyframe, indexing it as one": "最初のパケットがキーフレームではないため、キーフレームとして扱います",

		// Seek
		"Seeking to %s frame %d at dts %d":                        "%s フレーム %d (dts %d) へシーク中",
		"Replaying frame %d from keyframe %d":                     "キーフレーム %[2]d からフレーム %[1]d を再デコード中",
		"Seek to frame %d failed: %v":                             "フレーム %d へのシークに失敗しました: %v",
		"Replay to frame %d from keyframe %d exceeded its budget": "キーフレーム %[2]d からフレーム %[1]d への再デコードが上限を超えました",

		// Clip
		"Looping back to frame %d": "フレーム %d に戻ってループします",

		// Player
		"Playing from frame %d at %gx":          "フレーム %d から %g 倍速で再生中",
		"Dropping %d frame periods behind":      "%d フレーム分の遅れを破棄します",
		"Tick after frame %d failed: %v":        "フレーム %d の次のフレームに進めませんでした: %v",
		"Reached the end at frame %d":           "フレーム %d で終端に達しました",
		"Interrupted, stopping playback":        "中断されました。再生を停止します",
		"Showed %d frames, stopped at frame %d": "%d フレームを表示し、フレーム %d で停止しました",

		// Demuxer and decoders
		"Opened %s with %d tracks":                                           "%s を開きました (%d トラック)",
		"Decoding %s with %s":                                                "%s を %s でデコードします",
		"Started ffmpeg for the GOP at pts %d with %d packets":               "pts %d のGOPに対してffmpegを起動しました (%d パケット)",
		"ffmpeg held frame %d back, decoding whole GOP prefixes from now on": "ffmpegがフレーム %d を返さないため、以降はGOPの先頭からまとめてデコードします",

		// Timeline
		"Rendering timeline of %d frames with %d thumbnails": "%d フレームのタイムラインを描画中 (サムネイル %d 枚)",
		"Timeline saved to %s":                               "タイムラインを %s に保存しました",

		// Compare
		"Comparing %s and %s every %s": "%s と %s を %s ごとに比較中",

		// Output
		"Saved frame %d (%s) to %s": "フレーム %d (%s) を %s に保存しました",
		"Scrubbed %d frames in %s":  "%d フレームのシークが %s で完了しました",
		"Report saved to %s":        "レポートを %s に保存しました",

		"Saved %d side by side frames to %s": "左右比較フレーム %d 枚を %s に保存しました",
		"Saved frames %d and %d at %s to %s": "%[3]s のフレーム %[1]d と %[2]d を %[4]s に保存しました",
	})
}
