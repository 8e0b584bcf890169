// Package audiofile loads audio files into planar waveforms and writes
// waveforms back as PCM WAV.
//
// Decoders are chosen by file extension: WAV and AIFF through go-audio,
// MP3 through go-mp3 and Ogg Vorbis through oggvorbis. Only WAV can be
// written.
package audiofile
