package room

// Room 客室の読み取り専用ビュー
type Room struct {
	id                int64
	accommodationID   int64
	accommodationName string
	name              string
	price             int64
}

// NewRoom 新しいRoomを作成
func NewRoom(id, accommodationID int64, accommodationName, name string, price int64) *Room {
	return &Room{
		id:                id,
		accommodationID:   accommodationID,
		accommodationName: accommodationName,
		name:              name,
		price:             price,
	}
}

// ID 客室IDを返す
func (r *Room) ID() int64 {
	return r.id
}

// AccommodationID 宿泊施設IDを返す
func (r *Room) AccommodationID() int64 {
	return r.accommodationID
}

// AccommodationName 宿泊施設名を返す
func (r *Room) AccommodationName() string {
	return r.accommodationName
}

// Name 客室名を返す
func (r *Room) Name() string {
	return r.name
}

// Price 基本料金を返す
func (r *Room) Price() int64 {
	return r.price
}
