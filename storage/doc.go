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

// Package storage provides the storage abstraction behind the result cache.
//
// ResultStore decouples the cache from the embedded database so alternative
// backends, or in-memory ones for tests, can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the storage.ResultStore
// interface:
//
//	store, err := badger.NewResultStore(backend) // returns storage.ResultStore
//
// Internal constructors may return concrete types since they are only used
// within the implementation package.
//
// # Usage
//
// Open a persistent store:
//
//	backend, err := badger.OpenBackend("/var/lib/refinery/cache", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, _ := badger.NewResultStore(backend)
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryResultStore()
//
// # Thread Safety
//
// All implementations must support concurrent access from multiple goroutines.
//
// # Context Support
//
// Every method accepts context.Context. The badger backend checks it before
// each transaction; pass context.Background() when no deadline applies.
package storage
