// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dposlab/bbpelect/api/utils"
	"github.com/dposlab/bbpelect/builtin"
	"github.com/dposlab/bbpelect/cache"
	"github.com/dposlab/bbpelect/log"
	"github.com/dposlab/bbpelect/proposer"
	"github.com/dposlab/bbpelect/runtime"
)

const maxRankedLimit = 1000

var logger = log.WithContext("pkg", "election-api")

type Election struct {
	rt        *runtime.Runtime
	proposers *proposer.Set
	views     *cache.LRU
}

// New creates the election API. proposers may be nil when no proposer set is attached.
func New(rt *runtime.Runtime, proposers *proposer.Set, cacheSize int) (*Election, error) {
	views, err := cache.NewLRU("api_views", cacheSize)
	if err != nil {
		return nil, err
	}
	return &Election{rt: rt, proposers: proposers, views: views}, nil
}

type viewKey struct {
	version uint64
	query   string
}

// view loads a query result from a store snapshot. Results are cached per runtime version,
// the snapshot is taken after the version is read so it is never older than its key.
func (e *Election) view(query string, load func(c *builtin.Contracts) (any, error)) (any, error) {
	v, err := e.views.GetOrLoad(viewKey{e.rt.Version(), query}, func(any) (any, error) {
		var result any
		err := e.rt.View(func(c *builtin.Contracts) (err error) {
			result, err = load(c)
			return
		})
		return result, err
	})
	if changed, s := e.views.Stats(); changed {
		logger.Debug("view cache stats", "hitrate", strconv.FormatFloat(s.HitRate(), 'f', 3, 64), "size", e.views.Len())
	}
	return v, err
}

func (e *Election) handleGetState(w http.ResponseWriter, _ *http.Request) error {
	state, err := e.view("state", func(c *builtin.Contracts) (any, error) {
		st, err := c.Election.State()
		if err != nil {
			return nil, err
		}
		pending, err := c.Election.ChangeLog().Len()
		if err != nil {
			return nil, err
		}
		g, err := c.Reward.Global()
		if err != nil {
			return nil, err
		}
		return convertState(st, pending, g), nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, state)
}

func (e *Election) handleGetProducers(w http.ResponseWriter, req *http.Request) error {
	limit, err := utils.ParseInt(req.URL.Query().Get("limit"), 100, maxRankedLimit)
	if err != nil {
		return err
	}
	ranked, err := e.view("producers/"+req.URL.Query().Get("limit"), func(c *builtin.Contracts) (any, error) {
		list, err := c.Election.Ranked(int(limit))
		if err != nil {
			return nil, err
		}
		return convertRanked(list), nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, ranked)
}

func (e *Election) handleGetProducer(w http.ResponseWriter, req *http.Request) error {
	name, err := utils.ParseName(mux.Vars(req)["name"])
	if err != nil {
		return err
	}
	prod, err := e.view("producer/"+name.String(), func(c *builtin.Contracts) (any, error) {
		p, err := c.Election.Producers().Get(name)
		if err != nil || p == nil {
			return nil, err
		}
		rp, err := c.Reward.Producer(name)
		if err != nil {
			return nil, err
		}
		return convertProducer(p, rp), nil
	})
	if err != nil {
		return err
	}
	if prod == nil {
		return utils.NotFound("producer")
	}
	return utils.WriteJSON(w, prod)
}

func (e *Election) handleGetVoter(w http.ResponseWriter, req *http.Request) error {
	name, err := utils.ParseName(mux.Vars(req)["name"])
	if err != nil {
		return err
	}
	v, err := e.view("voter/"+name.String(), func(c *builtin.Contracts) (any, error) {
		v, err := c.Election.Voters().Get(name)
		if err != nil || v == nil {
			return nil, err
		}
		rv, err := c.Reward.Voter(name)
		if err != nil {
			return nil, err
		}
		refund, err := c.Election.Voters().GetRefund(name)
		if err != nil {
			return nil, err
		}
		return convertVoter(v, rv, refund), nil
	})
	if err != nil {
		return err
	}
	if v == nil {
		return utils.NotFound("voter")
	}
	return utils.WriteJSON(w, v)
}

func (e *Election) handleGetWindows(w http.ResponseWriter, _ *http.Request) error {
	elected, err := e.view("windows", func(c *builtin.Contracts) (any, error) {
		main, backup, err := c.Election.Windows()
		if err != nil || main == nil {
			return (*Elected)(nil), err
		}
		return &Elected{Main: names(main), Backup: names(backup)}, nil
	})
	if err != nil {
		return err
	}

	// the proposer set moves with blocks, not with actions
	windows := &Windows{Elected: elected.(*Elected)}
	if e.proposers != nil {
		main, backup := e.proposers.Windows()
		windows.Published = &Published{
			Version: e.proposers.Version(),
			Pending: e.proposers.Pending(),
			Main:    convertWindow(&main),
			Backup:  convertWindow(&backup),
		}
	}
	return utils.WriteJSON(w, windows)
}

func (e *Election) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/state").
		Methods(http.MethodGet).
		Name("election_get_state").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetState))
	sub.Path("/producers").
		Methods(http.MethodGet).
		Name("election_get_producers").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetProducers))
	sub.Path("/producers/{name}").
		Methods(http.MethodGet).
		Name("election_get_producer").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetProducer))
	sub.Path("/voters/{name}").
		Methods(http.MethodGet).
		Name("election_get_voter").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetVoter))
	sub.Path("/windows").
		Methods(http.MethodGet).
		Name("election_get_windows").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetWindows))
}
