/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package connectivity keeps the cross-owner connection state of a conduit model.
//
// Connectors live in an arena owned by Graph and are addressed by Handle. Owners
// (segments, fittings) hold handles through a Manager rather than connector values,
// and a connection is a pair of handles stored on both slots. Connect and Disconnect
// always update both ends in the same call, so the relation is symmetric at every
// point a caller can observe it.
//
// AutoConnect compares every open connector with every other one (O(n²)). That is fine
// for the hundreds of connectors an authoring session produces; a model with tens of
// thousands of open ends would need a spatial index in front of it.
package connectivity
