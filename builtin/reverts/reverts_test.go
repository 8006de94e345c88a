// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRevertKinds(t *testing.T) {
	err := errors.Wrap(New(Resource, "overdrawn balance"), "transfer")
	assert.True(t, IsRevertErr(err))
	assert.Equal(t, Resource, KindOf(err))
	assert.Equal(t, "transfer: overdrawn balance", err.Error())

	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("not an error"))
	assert.False(t, IsRevertErr(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))

	assert.True(t, IsConsistency(Newf(Consistency, "tail %d not found", 3)))
	assert.NoError(t, Require(true, Auth, "missing authority"))
	assert.Equal(t, Auth, KindOf(Require(false, Auth, "missing authority")))
	assert.Equal(t, "validation", Validation.String())
}
