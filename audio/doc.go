// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package audio turns compressed or PCM audio files into the 16 kHz mono
// float32 buffers consumed by the transcription engine.
//
// WAV is decoded with go-audio/wav and MP3 with go-mp3. M4A/AAC is converted
// through an ffmpeg subprocess. Only the first channel of the primary track is
// kept. The result is linearly resampled and peak-normalized; a silent result
// is an error rather than an empty transcription.
package audio
