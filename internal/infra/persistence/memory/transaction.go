package memory

import (
	"strconv"
	"strings"
	"time"

	"dormcore/pkg/domain"
)


// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to
// rules and queries.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListDormitories returns all dormitories within the snapshot.
func (v transactionView) ListDormitories() []Dormitory {
	out := make([]Dormitory, 0, len(v.state.dormitories))
	for _, d := range v.state.dormitories {
		out = append(out, cloneDormitory(d))
	}
	return out
}

// ListRooms returns all rooms within the snapshot.
func (v transactionView) ListRooms() []Room {
	out := make([]Room, 0, len(v.state.rooms))
	for _, r := range v.state.rooms {
		out = append(out, cloneRoom(r))
	}
	return out
}

// ListResidents returns all residents within the snapshot.
func (v transactionView) ListResidents() []Resident {
	out := make([]Resident, 0, len(v.state.residents))
	for _, r := range v.state.residents {
		out = append(out, cloneResident(r))
	}
	return out
}

// ListChildren returns all children within the snapshot.
func (v transactionView) ListChildren() []Child {
	out := make([]Child, 0, len(v.state.children))
	for _, c := range v.state.children {
		out = append(out, cloneChild(c))
	}
	return out
}

// ListDocuments returns all documents within the snapshot.
func (v transactionView) ListDocuments() []Document {
	out := make([]Document, 0, len(v.state.documents))
	for _, d := range v.state.documents {
		out = append(out, cloneDocument(d))
	}
	return out
}

// ListLinks returns all document-occupant links within the snapshot.
func (v transactionView) ListLinks() []DocumentOccupantLink {
	out := make([]DocumentOccupantLink, 0, len(v.state.links))
	for _, l := range v.state.links {
		out = append(out, cloneLink(l))
	}
	return out
}

// ListSettlements returns all settlement records within the snapshot.
func (v transactionView) ListSettlements() []Settlement {
	out := make([]Settlement, 0, len(v.state.settlements))
	for _, rec := range v.state.settlements {
		out = append(out, cloneSettlement(rec))
	}
	return out
}

// ListEvictions returns all eviction records within the snapshot.
func (v transactionView) ListEvictions() []Eviction {
	out := make([]Eviction, 0, len(v.state.evictions))
	for _, rec := range v.state.evictions {
		out = append(out, cloneEviction(rec))
	}
	return out
}

// FindDormitory retrieves a dormitory by ID from the snapshot.
func (v transactionView) FindDormitory(id string) (Dormitory, bool) {
	d, ok := v.state.dormitories[id]
	if !ok {
		return Dormitory{}, false
	}
	return cloneDormitory(d), true
}

// FindRoom retrieves a room by ID from the snapshot.
func (v transactionView) FindRoom(id string) (Room, bool) {
	r, ok := v.state.rooms[id]
	if !ok {
		return Room{}, false
	}
	return cloneRoom(r), true
}

// FindResident retrieves a resident by ID from the snapshot.
func (v transactionView) FindResident(id string) (Resident, bool) {
	r, ok := v.state.residents[id]
	if !ok {
		return Resident{}, false
	}
	return cloneResident(r), true
}

// FindChild retrieves a child by ID from the snapshot.
func (v transactionView) FindChild(id string) (Child, bool) {
	c, ok := v.state.children[id]
	if !ok {
		return Child{}, false
	}
	return cloneChild(c), true
}

// FindDocument retrieves a document by ID from the snapshot.
func (v transactionView) FindDocument(id string) (Document, bool) {
	d, ok := v.state.documents[id]
	if !ok {
		return Document{}, false
	}
	return cloneDocument(d), true
}

// FindSettlement retrieves a settlement by ID from the snapshot.
func (v transactionView) FindSettlement(id string) (Settlement, bool) {
	rec, ok := v.state.settlements[id]
	if !ok {
		return Settlement{}, false
	}
	return cloneSettlement(rec), true
}

// FindEviction retrieves an eviction by ID from the snapshot.
func (v transactionView) FindEviction(id string) (Eviction, bool) {
	rec, ok := v.state.evictions[id]
	if !ok {
		return Eviction{}, false
	}
	return cloneEviction(rec), true
}

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Dormitories ----------------------------------------------------------------

func validateDormitory(d Dormitory) error {
	if d.Number <= 0 {
		return domain.ValidationError{Field: "number", Reason: "must be positive"}
	}
	if len(strings.TrimSpace(d.Address)) < 5 {
		return domain.ValidationError{Field: "address", Reason: "must be at least 5 characters"}
	}
	return nil
}

func (tx *transaction) dormitoryNumberTaken(number int, excludeID string) bool {
	for _, existing := range tx.state.dormitories {
		if existing.ID != excludeID && existing.Number == number {
			return true
		}
	}
	return false
}

// CreateDormitory stores a new dormitory, enforcing the globally unique
// facility number.
func (tx *transaction) CreateDormitory(d Dormitory) (Dormitory, error) {
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.dormitories[d.ID]; exists {
		return Dormitory{}, domain.ConflictError{Entity: domain.EntityDormitory, Key: d.ID}
	}
	if err := validateDormitory(d); err != nil {
		return Dormitory{}, err
	}
	if tx.dormitoryNumberTaken(d.Number, d.ID) {
		return Dormitory{}, domain.ConflictError{Entity: domain.EntityDormitory, Key: strconv.Itoa(d.Number)}
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.dormitories[d.ID] = cloneDormitory(d)
	tx.recordChange(Change{Entity: domain.EntityDormitory, Action: domain.ActionCreate, After: cloneDormitory(d)})
	return cloneDormitory(d), nil
}

// UpdateDormitory mutates an existing dormitory.
func (tx *transaction) UpdateDormitory(id string, mutator func(*Dormitory) error) (Dormitory, error) {
	current, ok := tx.state.dormitories[id]
	if !ok {
		return Dormitory{}, domain.NotFoundError{Entity: domain.EntityDormitory, ID: id}
	}
	before := cloneDormitory(current)
	if err := mutator(&current); err != nil {
		return Dormitory{}, err
	}
	if err := validateDormitory(current); err != nil {
		return Dormitory{}, err
	}
	if tx.dormitoryNumberTaken(current.Number, id) {
		return Dormitory{}, domain.ConflictError{Entity: domain.EntityDormitory, Key: strconv.Itoa(current.Number)}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.dormitories[id] = cloneDormitory(current)
	tx.recordChange(Change{Entity: domain.EntityDormitory, Action: domain.ActionUpdate, Before: before, After: cloneDormitory(current)})
	return cloneDormitory(current), nil
}

// DeleteDormitory removes a dormitory and its rooms. It fails while any owned
// room still has occupants.
func (tx *transaction) DeleteDormitory(id string) error {
	current, ok := tx.state.dormitories[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityDormitory, ID: id}
	}
	for _, room := range tx.state.rooms {
		if room.DormitoryID == id && len(room.OccupantIDs) > 0 {
			return domain.ValidationError{Field: "dormitory", Reason: "has occupants; evict them before delete"}
		}
	}
	for roomID, room := range tx.state.rooms {
		if room.DormitoryID != id {
			continue
		}
		delete(tx.state.rooms, roomID)
		tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionDelete, Before: cloneRoom(room)})
	}
	delete(tx.state.dormitories, id)
	tx.recordChange(Change{Entity: domain.EntityDormitory, Action: domain.ActionDelete, Before: cloneDormitory(current)})
	return nil
}

// Rooms ----------------------------------------------------------------------

func (tx *transaction) roomNumberTaken(dormitoryID string, number int, excludeID string) bool {
	for _, existing := range tx.state.rooms {
		if existing.ID != excludeID && existing.DormitoryID == dormitoryID && existing.Number == number {
			return true
		}
	}
	return false
}

func validateRoom(r Room) error {
	if r.Number <= 0 {
		return domain.ValidationError{Field: "number", Reason: "must be positive"}
	}
	if r.Capacity <= 0 {
		return domain.ValidationError{Field: "capacity", Reason: "must be positive"}
	}
	return nil
}

// CreateRoom stores a new room. Rooms are created empty: occupancy changes
// only through AddRoomOccupant/RemoveRoomOccupant.
func (tx *transaction) CreateRoom(r Room) (Room, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.rooms[r.ID]; exists {
		return Room{}, domain.ConflictError{Entity: domain.EntityRoom, Key: r.ID}
	}
	if r.DormitoryID == "" {
		return Room{}, domain.ValidationError{Field: "dormitory_id", Reason: "must be set"}
	}
	if _, ok := tx.state.dormitories[r.DormitoryID]; !ok {
		return Room{}, domain.NotFoundError{Entity: domain.EntityDormitory, ID: r.DormitoryID}
	}
	if err := validateRoom(r); err != nil {
		return Room{}, err
	}
	if tx.roomNumberTaken(r.DormitoryID, r.Number, r.ID) {
		return Room{}, domain.ConflictError{Entity: domain.EntityRoom, Key: strconv.Itoa(r.Number)}
	}
	r.OccupantIDs = nil
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.rooms[r.ID] = cloneRoom(r)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionCreate, After: cloneRoom(r)})
	return cloneRoom(r), nil
}

// UpdateRoom mutates an existing room. The occupant list is owned by the
// store; mutations to it through the mutator are discarded.
func (tx *transaction) UpdateRoom(id string, mutator func(*Room) error) (Room, error) {
	current, ok := tx.state.rooms[id]
	if !ok {
		return Room{}, domain.NotFoundError{Entity: domain.EntityRoom, ID: id}
	}
	before := cloneRoom(current)
	occupants := append([]string(nil), current.OccupantIDs...)
	if err := mutator(&current); err != nil {
		return Room{}, err
	}
	current.OccupantIDs = occupants
	if current.DormitoryID == "" {
		return Room{}, domain.ValidationError{Field: "dormitory_id", Reason: "must be set"}
	}
	if _, ok := tx.state.dormitories[current.DormitoryID]; !ok {
		return Room{}, domain.NotFoundError{Entity: domain.EntityDormitory, ID: current.DormitoryID}
	}
	if err := validateRoom(current); err != nil {
		return Room{}, err
	}
	if tx.roomNumberTaken(current.DormitoryID, current.Number, id) {
		return Room{}, domain.ConflictError{Entity: domain.EntityRoom, Key: strconv.Itoa(current.Number)}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.rooms[id] = cloneRoom(current)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionUpdate, Before: before, After: cloneRoom(current)})
	return cloneRoom(current), nil
}

// DeleteRoom removes a room. It fails while the room has occupants.
func (tx *transaction) DeleteRoom(id string) error {
	current, ok := tx.state.rooms[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityRoom, ID: id}
	}
	if len(current.OccupantIDs) > 0 {
		return domain.ValidationError{Field: "room", Reason: "has occupants; evict them before delete"}
	}
	delete(tx.state.rooms, id)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionDelete, Before: cloneRoom(current)})
	return nil
}

// AddRoomOccupant appends an occupant reference to a room. It returns false
// with no side effect when the room is at capacity or the occupant is already
// present.
func (tx *transaction) AddRoomOccupant(roomID, occupantID string) (bool, error) {
	current, ok := tx.state.rooms[roomID]
	if !ok {
		return false, domain.NotFoundError{Entity: domain.EntityRoom, ID: roomID}
	}
	if occupantID == "" {
		return false, domain.ValidationError{Field: "occupant_id", Reason: "must be set"}
	}
	if len(current.OccupantIDs) >= current.Capacity {
		return false, nil
	}
	if current.HasOccupant(occupantID) {
		return false, nil
	}
	before := cloneRoom(current)
	current.OccupantIDs = append(current.OccupantIDs, occupantID)
	current.UpdatedAt = tx.now
	tx.state.rooms[roomID] = cloneRoom(current)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionUpdate, Before: before, After: cloneRoom(current)})
	return true, nil
}

// RemoveRoomOccupant removes an occupant reference from a room. It returns
// false when the occupant is not present.
func (tx *transaction) RemoveRoomOccupant(roomID, occupantID string) (bool, error) {
	current, ok := tx.state.rooms[roomID]
	if !ok {
		return false, domain.NotFoundError{Entity: domain.EntityRoom, ID: roomID}
	}
	idx := -1
	for i, existing := range current.OccupantIDs {
		if existing == occupantID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	before := cloneRoom(current)
	current.OccupantIDs = append(append([]string(nil), current.OccupantIDs[:idx]...), current.OccupantIDs[idx+1:]...)
	current.UpdatedAt = tx.now
	tx.state.rooms[roomID] = cloneRoom(current)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionUpdate, Before: before, After: cloneRoom(current)})
	return true, nil
}

// FindDormitoryByNumber retrieves a dormitory by its facility number.
func (tx *transaction) FindDormitoryByNumber(number int) (Dormitory, bool) {
	for _, d := range tx.state.dormitories {
		if d.Number == number {
			return cloneDormitory(d), true
		}
	}
	return Dormitory{}, false
}

// Occupants ------------------------------------------------------------------

func (tx *transaction) occupantIDTaken(id string) bool {
	if _, ok := tx.state.residents[id]; ok {
		return true
	}
	_, ok := tx.state.children[id]
	return ok
}

func validateResident(r Resident) error {
	if strings.TrimSpace(r.FullName) == "" {
		return domain.ValidationError{Field: "full_name", Reason: "must not be empty"}
	}
	if r.BirthDate.IsZero() {
		return domain.ValidationError{Field: "birth_date", Reason: "must be set"}
	}
	return nil
}

// CreateResident stores a new resident. Occupant ids are unique across both
// occupant variants.
func (tx *transaction) CreateResident(r Resident) (Resident, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if tx.occupantIDTaken(r.ID) {
		return Resident{}, domain.ConflictError{Entity: domain.EntityResident, Key: r.ID}
	}
	if err := validateResident(r); err != nil {
		return Resident{}, err
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.residents[r.ID] = cloneResident(r)
	tx.recordChange(Change{Entity: domain.EntityResident, Action: domain.ActionCreate, After: cloneResident(r)})
	return cloneResident(r), nil
}

// UpdateResident mutates an existing resident. The passport value object is
// immutable once the resident exists.
func (tx *transaction) UpdateResident(id string, mutator func(*Resident) error) (Resident, error) {
	current, ok := tx.state.residents[id]
	if !ok {
		return Resident{}, domain.NotFoundError{Entity: domain.EntityResident, ID: id}
	}
	before := cloneResident(current)
	passport := current.Passport
	if err := mutator(&current); err != nil {
		return Resident{}, err
	}
	current.Passport = passport
	if err := validateResident(current); err != nil {
		return Resident{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.residents[id] = cloneResident(current)
	tx.recordChange(Change{Entity: domain.EntityResident, Action: domain.ActionUpdate, Before: before, After: cloneResident(current)})
	return cloneResident(current), nil
}

// CreateChild stores a new child after verifying the parent reference against
// currently registered residents. The reference is not maintained afterward.
func (tx *transaction) CreateChild(c Child) (Child, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if tx.occupantIDTaken(c.ID) {
		return Child{}, domain.ConflictError{Entity: domain.EntityChild, Key: c.ID}
	}
	if strings.TrimSpace(c.FullName) == "" {
		return Child{}, domain.ValidationError{Field: "full_name", Reason: "must not be empty"}
	}
	if c.BirthDate.IsZero() {
		return Child{}, domain.ValidationError{Field: "birth_date", Reason: "must be set"}
	}
	if c.ParentResidentID == "" {
		return Child{}, domain.ValidationError{Field: "parent_resident_id", Reason: "must be set"}
	}
	if _, ok := tx.state.residents[c.ParentResidentID]; !ok {
		return Child{}, domain.NotFoundError{Entity: domain.EntityResident, ID: c.ParentResidentID}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.children[c.ID] = cloneChild(c)
	tx.recordChange(Change{Entity: domain.EntityChild, Action: domain.ActionCreate, After: cloneChild(c)})
	return cloneChild(c), nil
}

// UpdateChild mutates an existing child. The parent reference is weak and is
// not revalidated on update.
func (tx *transaction) UpdateChild(id string, mutator func(*Child) error) (Child, error) {
	current, ok := tx.state.children[id]
	if !ok {
		return Child{}, domain.NotFoundError{Entity: domain.EntityChild, ID: id}
	}
	before := cloneChild(current)
	if err := mutator(&current); err != nil {
		return Child{}, err
	}
	if strings.TrimSpace(current.FullName) == "" {
		return Child{}, domain.ValidationError{Field: "full_name", Reason: "must not be empty"}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.children[id] = cloneChild(current)
	tx.recordChange(Change{Entity: domain.EntityChild, Action: domain.ActionUpdate, Before: before, After: cloneChild(current)})
	return cloneChild(current), nil
}

// DeleteOccupant removes an occupant by id from whichever variant bucket
// holds it. The removal is unconditional: dependent children, room
// memberships, and document links are left untouched.
func (tx *transaction) DeleteOccupant(id string) error {
	if current, ok := tx.state.residents[id]; ok {
		delete(tx.state.residents, id)
		tx.recordChange(Change{Entity: domain.EntityResident, Action: domain.ActionDelete, Before: cloneResident(current)})
		return nil
	}
	if current, ok := tx.state.children[id]; ok {
		delete(tx.state.children, id)
		tx.recordChange(Change{Entity: domain.EntityChild, Action: domain.ActionDelete, Before: cloneChild(current)})
		return nil
	}
	return domain.NotFoundError{Entity: domain.EntityResident, ID: id}
}

// Documents ------------------------------------------------------------------

// CreateDocument stores a new document after format validation.
func (tx *transaction) CreateDocument(d Document) (Document, error) {
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.documents[d.ID]; exists {
		return Document{}, domain.ConflictError{Entity: domain.EntityDocument, Key: d.ID}
	}
	if err := domain.ValidateDocumentFormat(d, tx.now); err != nil {
		return Document{}, err
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.documents[d.ID] = cloneDocument(d)
	tx.recordChange(Change{Entity: domain.EntityDocument, Action: domain.ActionCreate, After: cloneDocument(d)})
	return cloneDocument(d), nil
}

// UpdateDocument mutates an existing document and revalidates its format.
// Identity fields other than the comment are restored after the mutator runs.
func (tx *transaction) UpdateDocument(id string, mutator func(*Document) error) (Document, error) {
	current, ok := tx.state.documents[id]
	if !ok {
		return Document{}, domain.NotFoundError{Entity: domain.EntityDocument, ID: id}
	}
	before := cloneDocument(current)
	if err := mutator(&current); err != nil {
		return Document{}, err
	}
	current.Series = before.Series
	current.Number = before.Number
	current.Title = before.Title
	current.IssueDate = before.IssueDate
	current.IssuedBy = before.IssuedBy
	if len(current.Comment) > domain.DocumentMaxCommentLen {
		return Document{}, domain.ValidationError{Field: "comment", Reason: "exceeds maximum length"}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.documents[id] = cloneDocument(current)
	tx.recordChange(Change{Entity: domain.EntityDocument, Action: domain.ActionUpdate, Before: before, After: cloneDocument(current)})
	return cloneDocument(current), nil
}

// DeleteDocument removes a document. Links referencing it are left in place
// and skipped at read time.
func (tx *transaction) DeleteDocument(id string) error {
	current, ok := tx.state.documents[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityDocument, ID: id}
	}
	delete(tx.state.documents, id)
	tx.recordChange(Change{Entity: domain.EntityDocument, Action: domain.ActionDelete, Before: cloneDocument(current)})
	return nil
}

// Links ----------------------------------------------------------------------

// CreateLink stores a document-occupant link, rejecting duplicate pairs.
func (tx *transaction) CreateLink(l DocumentOccupantLink) (DocumentOccupantLink, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.links[l.ID]; exists {
		return DocumentOccupantLink{}, domain.ConflictError{Entity: domain.EntityDocumentLink, Key: l.ID}
	}
	if l.DocumentID == "" {
		return DocumentOccupantLink{}, domain.ValidationError{Field: "document_id", Reason: "must be set"}
	}
	if l.OccupantID == "" {
		return DocumentOccupantLink{}, domain.ValidationError{Field: "occupant_id", Reason: "must be set"}
	}
	for _, existing := range tx.state.links {
		if existing.DocumentID == l.DocumentID && existing.OccupantID == l.OccupantID {
			return DocumentOccupantLink{}, domain.ConflictError{Entity: domain.EntityDocumentLink, Key: l.DocumentID + "/" + l.OccupantID}
		}
	}
	if l.LinkedAt.IsZero() {
		l.LinkedAt = tx.now
	}
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.links[l.ID] = cloneLink(l)
	tx.recordChange(Change{Entity: domain.EntityDocumentLink, Action: domain.ActionCreate, After: cloneLink(l)})
	return cloneLink(l), nil
}

// DeleteLink removes a link by id.
func (tx *transaction) DeleteLink(id string) error {
	current, ok := tx.state.links[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityDocumentLink, ID: id}
	}
	delete(tx.state.links, id)
	tx.recordChange(Change{Entity: domain.EntityDocumentLink, Action: domain.ActionDelete, Before: cloneLink(current)})
	return nil
}

// Ledger ---------------------------------------------------------------------

func validateBatch(occupantIDs []string) error {
	if len(occupantIDs) < 1 || len(occupantIDs) > domain.TransactionBatchLimit {
		return domain.ValidationError{Field: "occupant_ids", Reason: "batch must contain between 1 and 10 occupants"}
	}
	seen := make(map[string]struct{}, len(occupantIDs))
	for _, id := range occupantIDs {
		if id == "" {
			return domain.ValidationError{Field: "occupant_ids", Reason: "must not contain empty ids"}
		}
		if _, ok := seen[id]; ok {
			return domain.ValidationError{Field: "occupant_ids", Reason: "must not contain duplicates"}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// CreateSettlement appends a settlement record to the ledger.
func (tx *transaction) CreateSettlement(rec Settlement) (Settlement, error) {
	if rec.ID == "" {
		rec.ID = tx.store.newID()
	}
	if _, exists := tx.state.settlements[rec.ID]; exists {
		return Settlement{}, domain.ConflictError{Entity: domain.EntitySettlement, Key: rec.ID}
	}
	if err := validateBatch(rec.OccupantIDs); err != nil {
		return Settlement{}, err
	}
	if _, ok := tx.state.rooms[rec.RoomID]; !ok {
		return Settlement{}, domain.NotFoundError{Entity: domain.EntityRoom, ID: rec.RoomID}
	}
	if rec.DocumentID != nil {
		if _, ok := tx.state.documents[*rec.DocumentID]; !ok {
			return Settlement{}, domain.NotFoundError{Entity: domain.EntityDocument, ID: *rec.DocumentID}
		}
	}
	if rec.Status == "" {
		rec.Status = domain.SettlementInitialized
	}
	if rec.SettlementDate.IsZero() {
		rec.SettlementDate = tx.now
	}
	rec.CreatedAt = tx.now
	rec.UpdatedAt = tx.now
	tx.state.settlements[rec.ID] = cloneSettlement(rec)
	tx.recordChange(Change{Entity: domain.EntitySettlement, Action: domain.ActionCreate, After: cloneSettlement(rec)})
	return cloneSettlement(rec), nil
}

// UpdateSettlement mutates a settlement record, typically its status.
func (tx *transaction) UpdateSettlement(id string, mutator func(*Settlement) error) (Settlement, error) {
	current, ok := tx.state.settlements[id]
	if !ok {
		return Settlement{}, domain.NotFoundError{Entity: domain.EntitySettlement, ID: id}
	}
	before := cloneSettlement(current)
	if err := mutator(&current); err != nil {
		return Settlement{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.settlements[id] = cloneSettlement(current)
	tx.recordChange(Change{Entity: domain.EntitySettlement, Action: domain.ActionUpdate, Before: before, After: cloneSettlement(current)})
	return cloneSettlement(current), nil
}

// DeleteSettlement removes a settlement record. This is a correction
// mechanism, not part of the normal lifecycle.
func (tx *transaction) DeleteSettlement(id string) error {
	current, ok := tx.state.settlements[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySettlement, ID: id}
	}
	delete(tx.state.settlements, id)
	tx.recordChange(Change{Entity: domain.EntitySettlement, Action: domain.ActionDelete, Before: cloneSettlement(current)})
	return nil
}

// CreateEviction appends an eviction record to the ledger. The eviction date
// is always the store clock, never caller-supplied.
func (tx *transaction) CreateEviction(rec Eviction) (Eviction, error) {
	if rec.ID == "" {
		rec.ID = tx.store.newID()
	}
	if _, exists := tx.state.evictions[rec.ID]; exists {
		return Eviction{}, domain.ConflictError{Entity: domain.EntityEviction, Key: rec.ID}
	}
	if err := validateBatch(rec.OccupantIDs); err != nil {
		return Eviction{}, err
	}
	if strings.TrimSpace(rec.Reason) == "" {
		return Eviction{}, domain.ValidationError{Field: "reason", Reason: "must not be empty"}
	}
	if _, ok := tx.state.rooms[rec.RoomID]; !ok {
		return Eviction{}, domain.NotFoundError{Entity: domain.EntityRoom, ID: rec.RoomID}
	}
	if rec.SettlementID != nil {
		if _, ok := tx.state.settlements[*rec.SettlementID]; !ok {
			return Eviction{}, domain.NotFoundError{Entity: domain.EntitySettlement, ID: *rec.SettlementID}
		}
	}
	if rec.Status == "" {
		rec.Status = domain.EvictionInitialized
	}
	rec.EvictionDate = tx.now
	rec.CreatedAt = tx.now
	rec.UpdatedAt = tx.now
	tx.state.evictions[rec.ID] = cloneEviction(rec)
	tx.recordChange(Change{Entity: domain.EntityEviction, Action: domain.ActionCreate, After: cloneEviction(rec)})
	return cloneEviction(rec), nil
}

// UpdateEviction mutates an eviction record, typically its status and skip list.
func (tx *transaction) UpdateEviction(id string, mutator func(*Eviction) error) (Eviction, error) {
	current, ok := tx.state.evictions[id]
	if !ok {
		return Eviction{}, domain.NotFoundError{Entity: domain.EntityEviction, ID: id}
	}
	before := cloneEviction(current)
	if err := mutator(&current); err != nil {
		return Eviction{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.evictions[id] = cloneEviction(current)
	tx.recordChange(Change{Entity: domain.EntityEviction, Action: domain.ActionUpdate, Before: before, After: cloneEviction(current)})
	return cloneEviction(current), nil
}

// DeleteEviction removes an eviction record as an explicit correction.
func (tx *transaction) DeleteEviction(id string) error {
	current, ok := tx.state.evictions[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityEviction, ID: id}
	}
	delete(tx.state.evictions, id)
	tx.recordChange(Change{Entity: domain.EntityEviction, Action: domain.ActionDelete, Before: cloneEviction(current)})
	return nil
}

// Lookups --------------------------------------------------------------------

// FindDormitory exposes dormitory lookup within the transaction scope.
func (tx *transaction) FindDormitory(id string) (Dormitory, bool) {
	d, ok := tx.state.dormitories[id]
	if !ok {
		return Dormitory{}, false
	}
	return cloneDormitory(d), true
}

// FindRoom exposes room lookup within the transaction scope.
func (tx *transaction) FindRoom(id string) (Room, bool) {
	r, ok := tx.state.rooms[id]
	if !ok {
		return Room{}, false
	}
	return cloneRoom(r), true
}

// FindResident exposes resident lookup within the transaction scope.
func (tx *transaction) FindResident(id string) (Resident, bool) {
	r, ok := tx.state.residents[id]
	if !ok {
		return Resident{}, false
	}
	return cloneResident(r), true
}

// FindChild exposes child lookup within the transaction scope.
func (tx *transaction) FindChild(id string) (Child, bool) {
	c, ok := tx.state.children[id]
	if !ok {
		return Child{}, false
	}
	return cloneChild(c), true
}

// FindDocument exposes document lookup within the transaction scope.
func (tx *transaction) FindDocument(id string) (Document, bool) {
	d, ok := tx.state.documents[id]
	if !ok {
		return Document{}, false
	}
	return cloneDocument(d), true
}

// FindSettlement exposes settlement lookup within the transaction scope.
func (tx *transaction) FindSettlement(id string) (Settlement, bool) {
	rec, ok := tx.state.settlements[id]
	if !ok {
		return Settlement{}, false
	}
	return cloneSettlement(rec), true
}

// FindEviction exposes eviction lookup within the transaction scope.
func (tx *transaction) FindEviction(id string) (Eviction, bool) {
	rec, ok := tx.state.evictions[id]
	if !ok {
		return Eviction{}, false
	}
	return cloneEviction(rec), true
}
