// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package changes

// Proposed holds the changes of both producer windows.
type Proposed struct {
	Main   *ChangeMap
	Backup *ChangeMap
}

func NewProposed() *Proposed {
	return &Proposed{Main: NewChangeMap(), Backup: NewChangeMap()}
}

// Size is the total number of producer changes.
func (p *Proposed) Size() int {
	return p.Main.Len() + p.Backup.Len()
}

// IsEmpty reports whether publishing p would be a no-op.
func (p *Proposed) IsEmpty() bool {
	return p.Size() == 0 && !p.Main.ClearExisted && !p.Backup.ClearExisted
}

// MergeInto merges both windows of p into dest.
func (p *Proposed) MergeInto(dest *Proposed) error {
	if err := p.Main.MergeInto(dest.Main); err != nil {
		return err
	}
	return p.Backup.MergeInto(dest.Backup)
}

func (p *Proposed) Copy() *Proposed {
	return &Proposed{Main: p.Main.Copy(), Backup: p.Backup.Copy()}
}
