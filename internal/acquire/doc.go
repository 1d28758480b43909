// Package acquire turns a user-supplied video source into a local audio file
// ready for transcription.
//
// Remote URLs are fetched either with a local yt-dlp binary or through the
// RapidAPI social-download service; uploaded video files are converted to
// mp3 with ffmpeg. Every fetcher writes into the configured staging
// directory and hands ownership of the result to the caller, who must call
// Audio.Cleanup once the file has been uploaded to the provider.
package acquire
