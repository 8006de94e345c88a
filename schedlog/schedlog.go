// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package schedlog archives the producer change sets published to the proposer set.
package schedlog

import (
	"context"
	"database/sql"

	"github.com/ethereum/go-ethereum/rlp"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/chain"
)

// Queue identifies a producer window.
type Queue uint8

const (
	Main Queue = iota
	Backup
)

func (q Queue) String() string {
	if q == Main {
		return "main"
	}
	return "backup"
}

// Publication summarizes one published change set.
type Publication struct {
	Version     int64
	MainCount   uint32
	BackupCount uint32
	MainClear   bool
	BackupClear bool
	Changes     int
}

// Change is one archived producer change.
type Change struct {
	Version   int64
	Queue     Queue
	Producer  chain.Name
	Kind      changes.Kind
	Authority *chain.Authority
}

type SchedLog struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open the archive at given path.
func New(path string) (sl *SchedLog, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if sl == nil {
			db.Close()
		}
	}()
	// one connection keeps an in-memory database alive and shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(publicationTableSchema + changeTableSchema); err != nil {
		return nil, errors.Wrap(err, "create tables")
	}

	driverVer, _, _ := sqlite3.Version()
	return &SchedLog{path, db, driverVer}, nil
}

// NewMem create an archive in ram.
func NewMem() (*SchedLog, error) {
	return New(":memory:")
}

func (sl *SchedLog) Close() error {
	return sl.db.Close()
}

func (sl *SchedLog) Path() string {
	return sl.path
}

func authorityOf(op changes.Op) *chain.Authority {
	switch o := op.(type) {
	case changes.Add:
		return &o.Authority
	case changes.Modify:
		return &o.Authority
	}
	return nil
}

// Save archives the change set published as version.
func (sl *SchedLog) Save(version int64, p *changes.Proposed) (err error) {
	tx, err := sl.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec("INSERT INTO publication(version, mainCount, backupCount, mainClear, backupClear, changes) VALUES(?,?,?,?,?,?)",
		version,
		p.Main.ProducerCount,
		p.Backup.ProducerCount,
		p.Main.ClearExisted,
		p.Backup.ClearExisted,
		p.Size(),
	); err != nil {
		return errors.Wrap(err, "insert publication")
	}

	stmt, err := tx.Prepare("INSERT INTO producerChange(version, queue, producer, op, authority) VALUES(?,?,?,?,?)")
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for queue, m := range []*changes.ChangeMap{p.Main, p.Backup} {
		for _, name := range m.Names() {
			op := m.Changes[name]
			var auth []byte
			if a := authorityOf(op); a != nil {
				if auth, err = rlp.EncodeToBytes(a); err != nil {
					return errors.Wrap(err, "encode authority")
				}
			}
			if _, err = stmt.Exec(version, queue, name.String(), uint8(op.Kind()), auth); err != nil {
				return errors.Wrap(err, "insert change")
			}
		}
	}
	return tx.Commit()
}

// Publications returns up to limit publications from version from on, oldest first.
func (sl *SchedLog) Publications(ctx context.Context, from int64, limit int) ([]*Publication, error) {
	rows, err := sl.db.QueryContext(ctx,
		"SELECT version, mainCount, backupCount, mainClear, backupClear, changes FROM publication WHERE version >= ? ORDER BY version ASC LIMIT ?",
		from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pubs []*Publication
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var p Publication
		if err := rows.Scan(&p.Version, &p.MainCount, &p.BackupCount, &p.MainClear, &p.BackupClear, &p.Changes); err != nil {
			return nil, err
		}
		pubs = append(pubs, &p)
	}
	return pubs, rows.Err()
}

// History returns the archived changes of producer, oldest first.
func (sl *SchedLog) History(ctx context.Context, producer chain.Name) ([]*Change, error) {
	rows, err := sl.db.QueryContext(ctx,
		"SELECT version, queue, producer, op, authority FROM producerChange WHERE producer = ? ORDER BY version ASC, queue ASC",
		producer.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Change
	for rows.Next() {
		var (
			c     Change
			name  string
			auth  []byte
			queue uint8
			kind  uint8
		)
		if err := rows.Scan(&c.Version, &queue, &name, &kind, &auth); err != nil {
			return nil, err
		}
		if c.Producer, err = chain.ParseName(name); err != nil {
			return nil, errors.Wrap(err, "archived producer name")
		}
		c.Queue, c.Kind = Queue(queue), changes.Kind(kind)
		if len(auth) > 0 {
			c.Authority = new(chain.Authority)
			if err := rlp.DecodeBytes(auth, c.Authority); err != nil {
				return nil, errors.Wrap(err, "decode authority")
			}
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
