// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"github.com/dposlab/bbpelect/builtin/election/producer"
)

// Ranked returns up to limit producers in ranking order, all of them if limit <= 0.
func (e *Election) Ranked(limit int) ([]producer.ElectedInfo, error) {
	cur := e.producers.Cursor()
	defer cur.Release()

	var list []producer.ElectedInfo
	for info, ok, err := cur.First(); ; info, ok, err = cur.Next() {
		if err != nil {
			return nil, err
		}
		if !ok || (limit > 0 && len(list) == limit) {
			return list, nil
		}
		list = append(list, info)
	}
}

// Windows returns the current members of the main and backup windows as recorded by the
// queue markers. Both are nil while the windows are not maintained.
func (e *Election) Windows() (main, backup []producer.ElectedInfo, err error) {
	st, err := e.global.Get()
	if err != nil {
		return nil, nil, err
	}
	if !st.IsInitialized() || st.ElectedChangeInterrupted {
		return nil, nil, nil
	}
	k := int(st.Queues.Main.LastProducerCount)
	list, err := e.Ranked(k + int(st.Queues.Backup.LastProducerCount))
	if err != nil {
		return nil, nil, err
	}
	if len(list) < k {
		return list, nil, nil
	}
	return list[:k], list[k:], nil
}
