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

// Package engine owns the speech-to-text model.
//
// A Registry loads the model lazily, once, and shares it across concurrent
// transcriptions. The default build drives the whisper-cli binary from
// whisper.cpp; building with -tags whisper links the whisper.cpp Go bindings
// and runs the model in process. Both validate the model file at load time.
//
// The model path comes from configuration, then the WHISPER_MODEL_PATH
// environment variable, then ./models/whisper-cpp/ggml-base.en.bin.
package engine
