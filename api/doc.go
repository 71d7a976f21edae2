/*
 * Copyright 2025 avolkov.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api translates errors escaping request handlers into structured
// JSON responses at the HTTP boundary. Dispatch is strictly most specific
// first: taxonomy errors, then recognized storage-engine errors, then
// everything else. Clients only ever see {detail, type, path}; stack traces
// and driver details stay in the server log.
package api
