package sources

// YouTube implementation is split across three files by responsibility:
//   youtube_innertube.go  — Innertube constants, types, and low-level HTTP primitives
//   youtube_transcript.go — transcript fetching (watch-page captions + ANDROID player fallback)
//   youtube_channel.go    — channel-scoped video search via ytInitialData scraping,
//                           with optional long-description and transcript enrichment
