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

// Package cache stores extraction results keyed by "<namespace>:result:<filename>".
//
// Values are gzip-compressed and wrapped in a msgpack envelope carrying a
// BLAKE2b checksum of the plain text. Entries that fail to decode are reported
// as ErrCorrupt and treated as misses. Writes from the request path go through
// Writer, which never blocks and never fails the caller.
package cache
