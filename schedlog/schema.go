// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedlog

const publicationTableSchema = `
create table if not exists publication (
	version integer primary key,
	mainCount integer,
	backupCount integer,
	mainClear integer,
	backupClear integer,
	changes integer
);
`

const changeTableSchema = `
create table if not exists producerChange (
	version integer not null,
	queue integer not null,
	producer text not null,
	op integer not null,
	authority blob
);

CREATE INDEX if not exists producerIndex on producerChange(producer);
CREATE INDEX if not exists versionIndex on producerChange(version);
`
