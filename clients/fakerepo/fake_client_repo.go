package fakeclientrepo

import (
	"errors"
	"sort"
	"sync"

	"github.com/jrsteele09/contract-desk/clients"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

type FakeClientRepo struct {
	clients map[string]*clients.Client
	lock    sync.RWMutex
}

func NewFakeClientRepo() clients.Repo {
	return &FakeClientRepo{
		clients: make(map[string]*clients.Client),
	}
}

func (r *FakeClientRepo) Upsert(clientData *clients.Client) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if clientData.ID == "" {
		return errors.New("client id is required")
	}
	cp := *clientData
	r.clients[clientData.ID] = &cp
	return nil
}

func (r *FakeClientRepo) Delete(clientID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.clients[clientID]; !ok {
		return errors.New("not found")
	}
	delete(r.clients, clientID)
	return nil
}

func (r *FakeClientRepo) Get(clientID string) (*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	client, ok := r.clients[clientID]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *client
	return &cp, nil
}

func (r *FakeClientRepo) List() ([]*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	result := make([]*clients.Client, 0, len(r.clients))
	for _, v := range r.clients {
		cp := *v
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}
