/*
 *    ipstream core library for IPv4 fragment reassembly
 *
 *    Copyright (C) 2014, 2015  David Stainton
 *
 *    This program is free software: you can redistribute it and/or modify
 *    it under the terms of the GNU General Public License as published by
 *    the Free Software Foundation, either version 3 of the License, or
 *    (at your option) any later version.
 *
 *    This program is distributed in the hope that it will be useful,
 *    but WITHOUT ANY WARRANTY; without even the implied warranty of
 *    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *    GNU General Public License for more details.
 *
 *    You should have received a copy of the GNU General Public License
 *    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package ipstream

import (
	"sort"
	"sync"
	"time"

	"github.com/david415/ipstream/types"
)

// timer is the part of *time.Timer the tracker needs.
type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// fragmentGroup holds the pending fragments of one datagram, sorted by
// fragment offset.
type fragmentGroup struct {
	key        types.FragmentKey
	pending    []*types.Message
	timer      timer
	generation uint64
}

func (g *fragmentGroup) insert(msg *types.Message) {
	g.pending = append(g.pending, msg)
	sort.SliceStable(g.pending, func(i, j int) bool {
		return g.pending[i].IP.FragOffset < g.pending[j].IP.FragOffset
	})
}

// complete reports whether the pending fragments cover the datagram from
// offset zero through a final fragment with no gap and no overlap, and
// every fragment holds all the payload its header announces.
func (g *fragmentGroup) complete() bool {
	last := g.pending[len(g.pending)-1]
	if last.IP.MoreFragments {
		return false
	}
	expectedOffset := 0
	for i, frag := range g.pending {
		if int(frag.IP.FragOffset) != expectedOffset {
			return false
		}
		if len(frag.Payload()) < frag.IP.DataLength {
			return false
		}
		// only the final fragment may end off an 8 byte boundary
		if frag.IP.DataLength%8 != 0 && i != len(g.pending)-1 {
			return false
		}
		expectedOffset += frag.IP.DataLength / 8
	}
	return true
}

// merge concatenates the pending payloads into a new message whose header
// is taken from trigger.
func (g *fragmentGroup) merge(trigger *types.Message) *types.Message {
	totalLength := 0
	for _, frag := range g.pending {
		totalLength += len(frag.Payload())
	}
	data := make([]byte, 0, totalLength)
	for _, frag := range g.pending {
		data = append(data, frag.Payload()...)
	}

	ip := trigger.IP.Clone()
	ip.DataLength = len(data)
	ip.TotalLength = ip.Length + ip.DataLength
	ip.MoreFragments = false
	ip.FragOffset = 0

	return &types.Message{
		Data:      data,
		IP:        ip,
		Ether:     trigger.Ether,
		Timestamp: trigger.Timestamp,
	}
}

// fragmentTracker owns every in-flight fragment group of one stream. A
// group is removed together with its timer, either when it completes or
// when it is evicted; both happen while holding the lock.
type fragmentTracker struct {
	sync.Mutex

	groups         map[types.FragmentKey]*fragmentGroup
	timeout        time.Duration
	maxGroups      int
	logger         types.Logger
	afterFunc      afterFunc
	nextGeneration uint64
}

func newFragmentTracker(timeout time.Duration, maxGroups int, logger types.Logger) *fragmentTracker {
	return &fragmentTracker{
		groups:    make(map[types.FragmentKey]*fragmentGroup),
		timeout:   timeout,
		maxGroups: maxGroups,
		logger:    logger,
		afterFunc: realAfterFunc,
	}
}

// admit adds a fragment to its group and returns the reassembled
// datagram if that fragment completed it, nil otherwise.
func (f *fragmentTracker) admit(msg *types.Message) *types.Message {
	key := types.NewFragmentKey(msg.IP)

	f.Lock()
	defer f.Unlock()

	group, ok := f.groups[key]
	if !ok {
		if f.maxGroups > 0 && len(f.groups) >= f.maxGroups {
			f.evictOldestLocked()
		}
		group = f.newGroupLocked(key)
	}
	group.insert(msg)

	if !group.complete() {
		return nil
	}
	merged := group.merge(msg)
	f.removeLocked(group)
	log.Debugf("reassembled %s from %d fragments, %d bytes", key, len(group.pending), len(merged.Data))
	return merged
}

func (f *fragmentTracker) newGroupLocked(key types.FragmentKey) *fragmentGroup {
	f.nextGeneration += 1
	group := &fragmentGroup{
		key:        key,
		generation: f.nextGeneration,
	}
	generation := group.generation
	group.timer = f.afterFunc(f.timeout, func() {
		f.expire(key, generation)
	})
	f.groups[key] = group
	return group
}

func (f *fragmentTracker) removeLocked(group *fragmentGroup) {
	delete(f.groups, group.key)
	if group.timer != nil {
		group.timer.Stop()
	}
}

// expire is run by a group's timer. The generation check keeps a timer
// that lost the race with completion from evicting a newer group that
// reuses the same key.
func (f *fragmentTracker) expire(key types.FragmentKey, generation uint64) {
	f.Lock()
	defer f.Unlock()

	group, ok := f.groups[key]
	if !ok || group.generation != generation {
		return
	}
	delete(f.groups, key)
	log.Infof("fragments of %s timed out, %d held", key, len(group.pending))
	f.reportLocked(group)
}

// evictOldestLocked makes room for a new group by treating the oldest
// one as timed out.
func (f *fragmentTracker) evictOldestLocked() {
	var oldest *fragmentGroup
	for _, group := range f.groups {
		if oldest == nil || group.generation < oldest.generation {
			oldest = group
		}
	}
	if oldest == nil {
		return
	}
	f.removeLocked(oldest)
	log.Warningf("fragment group limit %d reached, evicting %s", f.maxGroups, oldest.key)
	f.reportLocked(oldest)
}

func (f *fragmentTracker) reportLocked(group *fragmentGroup) {
	if f.logger == nil {
		return
	}
	key := group.key
	now := time.Now()
	for _, msg := range group.pending {
		f.logger.Log(&types.Event{
			Reason:  types.ReasonFragmentTimeout,
			Time:    now,
			Message: msg,
			Err:     ErrFragmentTimeout,
			Key:     &key,
		})
	}
}

// flush evicts every group as if its timer had fired and returns the
// number of groups evicted.
func (f *fragmentTracker) flush() int {
	f.Lock()
	defer f.Unlock()

	groups := make([]*fragmentGroup, 0, len(f.groups))
	for _, group := range f.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].generation < groups[j].generation
	})
	for _, group := range groups {
		f.removeLocked(group)
		f.reportLocked(group)
	}
	return len(groups)
}

func (f *fragmentTracker) pending() int {
	f.Lock()
	defer f.Unlock()
	return len(f.groups)
}
