// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/api/election"
	"github.com/dposlab/bbpelect/builtin"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/test/testchain"
)

var (
	ts *httptest.Server
	tc *testchain.Chain
)

func initElectionServer(t *testing.T) {
	var err error
	tc, err = testchain.New(1)
	require.NoError(t, err)
	require.NoError(t, tc.Bootstrap(26, 4))

	el, err := election.New(tc.Runtime(), tc.Proposers(), 64)
	require.NoError(t, err)
	router := mux.NewRouter()
	el.Mount(router, "/election")
	ts = httptest.NewServer(router)
	t.Cleanup(ts.Close)
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func getJSON(t *testing.T, path string, v any) {
	body, code := httpGet(t, ts.URL+path)
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, v))
}

func TestElection(t *testing.T) {
	initElectionServer(t)

	t.Run("getState", testGetState)
	t.Run("getProducers", testGetProducers)
	t.Run("getProducer", testGetProducer)
	t.Run("getVoter", testGetVoter)
	t.Run("getWindows", testGetWindows)
	t.Run("badRequests", testBadRequests)
	t.Run("viewFollowsVersion", testViewFollowsVersion)
}

func testGetState(t *testing.T) {
	var st election.State
	getJSON(t, "/election/state", &st)
	assert.True(t, st.Initialized)
	assert.False(t, st.Interrupted)
	assert.Equal(t, uint32(21), st.Main.Count)
	assert.Equal(t, uint32(4), st.Backup.Count)
	assert.Equal(t, testchain.ProducerName(5), st.Main.Tail.Name)
	assert.Equal(t, testchain.ProducerName(1), st.Backup.Tail.Name)
	assert.Equal(t, testchain.ProducerName(0), st.Backup.TailNext.Name)
	assert.Equal(t, "0.0001 VOTE", st.MinProducerVotes.String())
}

func testGetProducers(t *testing.T) {
	var ranked []*election.Ranked
	getJSON(t, "/election/producers?limit=3", &ranked)
	require.Len(t, ranked, 3)
	assert.Equal(t, testchain.ProducerName(25), ranked[0].Name)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "0.0035 VOTE", ranked[0].ElectedVotes.String())

	getJSON(t, "/election/producers", &ranked)
	assert.Len(t, ranked, 26)
}

func testGetProducer(t *testing.T) {
	var p election.Producer
	getJSON(t, "/election/producers/"+testchain.ProducerName(3).String(), &p)
	assert.True(t, p.Active)
	assert.Equal(t, "0.0013 VOTE", p.ElectedVotes.String())
	require.Len(t, p.Authority.Keys, 1)
	assert.Equal(t, testchain.Key(3), p.Authority.Keys[0].Key)
	require.NotNil(t, p.VoterRewards)
	assert.Equal(t, "0.0013 VOTE", p.VoterRewards.Votes.String())

	_, code := httpGet(t, ts.URL+"/election/producers/nobody")
	assert.Equal(t, http.StatusNotFound, code)
}

func testGetVoter(t *testing.T) {
	var v election.Voter
	getJSON(t, "/election/voters/"+testchain.VoterName(2).String(), &v)
	assert.Equal(t, "0.0012 VOTE", v.Votes.String())
	assert.Equal(t, []chain.Name{testchain.ProducerName(2)}, v.Producers)
	assert.Nil(t, v.Refund)
}

func testGetWindows(t *testing.T) {
	var w election.Windows
	getJSON(t, "/election/windows", &w)
	require.NotNil(t, w.Elected)
	assert.Len(t, w.Elected.Main, 21)
	assert.Len(t, w.Elected.Backup, 4)
	require.NotNil(t, w.Published)
	assert.Equal(t, int64(1), w.Published.Version)
	assert.ElementsMatch(t, w.Elected.Main, w.Published.Main.Producers)
	assert.ElementsMatch(t, w.Elected.Backup, w.Published.Backup.Producers)
}

func testBadRequests(t *testing.T) {
	for _, path := range []string{
		"/election/producers?limit=abc",
		"/election/producers?limit=100000",
		"/election/voters/NotAName",
	} {
		_, code := httpGet(t, ts.URL+path)
		assert.Equal(t, http.StatusBadRequest, code, path)
	}
}

func testViewFollowsVersion(t *testing.T) {
	prod := testchain.ProducerName(7)
	var before election.Producer
	getJSON(t, "/election/producers/"+prod.String(), &before)

	require.NoError(t, tc.Exec("setvoteshare", prod, func(c *builtin.Contracts) error {
		return c.Election.SetVoteShare(prod, 2500)
	}))

	var after election.Producer
	getJSON(t, "/election/producers/"+prod.String(), &after)
	assert.Zero(t, before.RewardSharedRatio)
	assert.Equal(t, uint32(2500), after.RewardSharedRatio)
}
