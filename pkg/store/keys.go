package store

import "fmt"

// Entity rows live in a flat keyspace namespaced by a <kind>/<id> prefix.
// Replica bookkeeping sits under sys/ and server-side per-client state under
// client/ so keyspace scans of entity kinds never collide with either.
const (
	TripPrefix          = "trip/"
	CollaboratorPrefix  = "collaborator/"
	ItineraryItemPrefix = "itineraryItem/"
	TaskPrefix          = "task/"
	ExpensePrefix       = "expense/"
	ExpensePayerPrefix  = "expensePayer/"

	ClientPrefix  = "client/"
	PendingPrefix = "sys/pending/"

	CookieKey         = "sys/cookie"
	NextMutationIDKey = "sys/next-mutation-id"
	VersionKey        = "sys/version"
)

// EntityPrefixes lists every entity namespace, in the order a full-reset
// pull patch emits them.
var EntityPrefixes = []string{
	TripPrefix,
	CollaboratorPrefix,
	ItineraryItemPrefix,
	TaskPrefix,
	ExpensePrefix,
	ExpensePayerPrefix,
}

func TripKey(id string) string          { return TripPrefix + id }
func CollaboratorKey(id string) string  { return CollaboratorPrefix + id }
func ItineraryItemKey(id string) string { return ItineraryItemPrefix + id }
func TaskKey(id string) string          { return TaskPrefix + id }
func ExpenseKey(id string) string       { return ExpensePrefix + id }
func ExpensePayerKey(id string) string  { return ExpensePayerPrefix + id }
func ClientKey(id string) string        { return ClientPrefix + id }

// PendingKey builds the durable pending-log key for a local mutation id.
// Ids are zero-padded so byte order equals numeric order.
func PendingKey(mutationID uint64) string {
	return fmt.Sprintf("%s%020d", PendingPrefix, mutationID)
}
