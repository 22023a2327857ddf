package db

// Repositories provides access to all database repositories
type Repositories struct {
	Channels *ChannelRepository
	Blocks   *BlockRepository
	Items    *ItemRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Channels: NewChannelRepository(db),
		Blocks:   NewBlockRepository(db),
		Items:    NewItemRepository(db),
	}
}
