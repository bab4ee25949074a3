// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

func TestSendRequest_Bytes(t *testing.T) {
	roster := teamlink.DefaultRoster()

	tests := []struct {
		name string
		req  sendRequest
		want string
	}{
		{"speed", sendRequest{speed: 40}, "MotorSpeed40YB"},
		{"speed zero", sendRequest{speed: 0}, "MotorSpeed0YB"},
		{"payload defaults", sendRequest{speed: -1, payload: "hi"}, "AZhiWXYB"},
		{"payload addressed", sendRequest{speed: -1, payload: "hi", from: "S", to: "D"}, "AZhiSDYB"},
		{"raw escapes", sendRequest{speed: -1, raw: `AZ\x00WXYB`}, "AZ\x00WXYB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.bytes(roster)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSendRequest_Errors(t *testing.T) {
	roster := teamlink.DefaultRoster()

	tests := []struct {
		name string
		req  sendRequest
	}{
		{"nothing", sendRequest{speed: -1}},
		{"two forms", sendRequest{speed: 20, raw: "x"}},
		{"speed not in table", sendRequest{speed: 50}},
		{"speed out of range", sendRequest{speed: 300}},
		{"long sender", sendRequest{speed: -1, payload: "hi", from: "SS"}},
		{"payload with end marker", sendRequest{speed: -1, payload: "aYBb"}},
		{"bad escape", sendRequest{speed: -1, raw: `\q`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.bytes(roster)
			assert.Error(t, err)
		})
	}
}

func TestUnescape_Quotes(t *testing.T) {
	got, err := unescape(`say "hi"`)
	require.NoError(t, err)
	assert.Equal(t, `say "hi"`, string(got))
}
