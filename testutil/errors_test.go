/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireNoErrorInChannel(t *testing.T) {
	fatalErrors := make(chan error, 1)

	mockT := &MockT{}
	RequireNoErrorInChannel(mockT, fatalErrors)
	require.False(t, mockT.Failed)

	fatalErrors <- nil
	RequireNoErrorInChannel(mockT, fatalErrors)
	require.False(t, mockT.Failed)

	fatalErrors <- errors.New("listen tcp :8000: bind: address already in use")
	RequireNoErrorInChannel(mockT, fatalErrors)
	require.True(t, mockT.Failed)
}
