package transport

import (
	"sort"
	"time"

	"github.com/hostlink-dev/hostlink-sdk/go/future"
)

// pendingRequest is a Send awaiting its response.
type pendingRequest struct {
	createdAt time.Time
	future    *future.Future[Reply]
	uuid      string
	apiName   string
	id        int64
}

// pendingTable holds live requests by id, with a uuid index. It is guarded
// by the transport mutex.
type pendingTable struct {
	byID   map[int64]*pendingRequest
	byUUID map[string]int64
}

func newPendingTable() pendingTable {
	return pendingTable{
		byID:   make(map[int64]*pendingRequest),
		byUUID: make(map[string]int64),
	}
}

func (p *pendingTable) add(req *pendingRequest) {
	p.byID[req.id] = req
	if req.uuid != "" {
		p.byUUID[req.uuid] = req.id
	}
}

// take removes and returns the entry a response addresses. The uuid wins
// when it is known; otherwise the id is used.
func (p *pendingTable) take(id *int64, uuid string) (*pendingRequest, bool) {
	if uuid != "" {
		if byUUID, ok := p.byUUID[uuid]; ok {
			return p.remove(byUUID)
		}
	}
	if id == nil {
		return nil, false
	}
	return p.remove(*id)
}

func (p *pendingTable) remove(id int64) (*pendingRequest, bool) {
	req, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	delete(p.byID, id)
	if req.uuid != "" {
		delete(p.byUUID, req.uuid)
	}
	return req, true
}

// drain empties the table and returns its entries in id order.
func (p *pendingTable) drain() []*pendingRequest {
	out := make([]*pendingRequest, 0, len(p.byID))
	for _, req := range p.byID {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	p.byID = make(map[int64]*pendingRequest)
	p.byUUID = make(map[string]int64)
	return out
}

func (p *pendingTable) ids() []int64 {
	out := make([]int64, 0, len(p.byID))
	for id := range p.byID {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
