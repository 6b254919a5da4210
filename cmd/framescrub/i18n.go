// Package main provides localization for the framescrub CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Logging":       "ログ",
		"Output":        "出力先",

		// Root command
		"Index videos and seek to any frame": "動画をインデックス化し任意のフレームへシーク",
		"framescrub indexes every frame of an MP4 video once and then decodes any frame on demand by replaying from its keyframe.": "framescrubはMP4動画の全フレームを一度インデックス化し、キーフレームからの再デコードで任意のフレームを取り出します。",

		// Global flags
		"YAML configuration file":                          "YAML設定ファイル",
		"Path to the ffmpeg executable used for H.264":     "H.264のデコードに使うffmpeg実行ファイルのパス",
		"Log level (debug, info, warn, error)":             "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                          "全てのログ出力を抑制",
		"Directory for frames, timelines and reports":      "フレーム、タイムライン、レポートの出力ディレクトリ",
		"Write frames as JPEG with this quality (0 = PNG)": "この品質でフレームをJPEG出力（0 = PNG）",

		// Probe command
		"Index a video and print its frame report":                              "動画をインデックス化しフレームレポートを表示",
		"Index from container flags without decoding":                           "デコードせずにコンテナのフラグからインデックス化",
		"Time a seek to this frame (repeatable)":                                "このフレームへのシーク時間を計測（複数指定可）",
		"Write the report to this file instead of stdout (.md, .yaml or .json)": "レポートを標準出力ではなくこのファイルに書き込む（.md、.yaml、.json）",

		// Frame command
		"Decode one frame and save it as an image":                    "1フレームをデコードして画像として保存",
		"Image path (.png or .jpg); defaults to the frames directory": "画像のパス（.pngまたは.jpg）。省略時はframesディレクトリ",

		// Scrub command
		"Seek to frames in the given order and time every seek":            "指定順にフレームへシークし各シークの時間を計測",
		"Seek to every Nth frame, last to first, when no frames are given": "フレーム未指定時、最後から先頭へNフレームごとにシーク",
		"Save every sought frame to the frames directory":                  "シークした全フレームをframesディレクトリに保存",
		"Save the report as scrub.md in the output directory":              "レポートを出力ディレクトリのscrub.mdに保存",

		// Play command
		"Play a video in real time":                       "動画を実時間で再生",
		"Playback speed (1.0 = real time)":                "再生速度（1.0 = 実時間）",
		"Restart from the first frame after the last":     "最終フレームの後に先頭から再生",
		"First frame of the played range":                 "再生範囲の最初のフレーム",
		"Last frame of the played range (0 = last frame)": "再生範囲の最後のフレーム（0 = 最終フレーム）",
		"Stop after this many frames (0 = no limit)":      "このフレーム数で停止（0 = 無制限）",
		"Save every shown frame to the frames directory":  "表示した全フレームをframesディレクトリに保存",

		// Timeline command
		"Render the frame index as a PNG strip":                      "フレームインデックスをPNGの帯として描画",
		"Frame to highlight (-1 = none)":                             "強調表示するフレーム（-1 = なし）",
		"Number of thumbnails above the strip (0 = none)":            "帯の上に並べるサムネイル数（0 = なし）",
		"PNG path; defaults to timeline.png in the output directory": "PNGのパス。省略時は出力ディレクトリのtimeline.png",

		// Compare command
		"Show two videos side by side at the same moment":                 "2つの動画の同じ時点を左右に並べて表示",
		"Offset from the first frame to compare at":                       "比較する時点（先頭フレームからのオフセット）",
		"Compare at this interval across both videos and save every pair": "この間隔で両動画を比較し、全ての組を保存",
		"Gap between the two videos in pixels":                            "2つの動画の間隔（ピクセル）",
		"Image path; defaults to compare.png in the output directory":     "画像のパス。省略時は出力ディレクトリのcompare.png",

		// Runtime messages
		"Error: %v": "エラー: %v",

		// Report content
		"Probe Report":       "プローブレポート",
		"Item":               "項目",
		"Value":              "値",
		"File":               "ファイル",
		"File Size":          "ファイルサイズ",
		"Codec":              "コーデック",
		"Resolution":         "解像度",
		"Aspect Ratio":       "アスペクト比",
		"Frame Rate":         "フレームレート",
		"Frame Duration":     "1フレームの時間",
		"Duration":           "再生時間",
		"Decoder Delay":      "デコーダ遅延",
		"Yes":                "あり",
		"No":                 "なし",
		"Frame Index":        "フレームインデックス",
		"Frames":             "フレーム数",
		"Keyframes":          "キーフレーム数",
		"Longest GOP":        "最長GOP",
		"Probe Time":         "プローブ時間",
		"Keyframe Positions": "キーフレーム位置",
		"GOP Lengths":        "GOP長",
		"and more:":          "ほか",
		"Seeks":              "シーク",
		"Frame":              "フレーム",
		"Path":               "経路",
		"Packets":            "パケット数",
		"Time":               "時間",
		"keyframe":           "キーフレーム",
		"start":              "先頭",
		"replay":             "再デコード",
		"none":               "なし",
		"Generated at":       "生成日時",
	})
}
