// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import "testing"

func TestSplitReplayArg(t *testing.T) {
	cases := []struct {
		arg     string
		file    string
		session string
	}{
		{"trace.db", "trace.db", ""},
		{"trace.db:abc-123", "trace.db", "abc-123"},
		{"/state/nvgrid/trace.db", "/state/nvgrid/trace.db", ""},
		{"/state/nvgrid/trace.db:abc-123", "/state/nvgrid/trace.db", "abc-123"},
		{"dir:with/colon.db", "dir:with/colon.db", ""},
		{"trace.db:", "trace.db:", ""},
	}
	for _, tc := range cases {
		file, session := splitReplayArg(tc.arg)
		if file != tc.file || session != tc.session {
			t.Errorf("splitReplayArg(%q) = %q, %q; want %q, %q",
				tc.arg, file, session, tc.file, tc.session)
		}
	}
}
