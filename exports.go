package conc

// Re-export core types from subpackages so small programs need one import
import (
	"github.com/a2y-d5l/go-conc/bridge"
	"github.com/a2y-d5l/go-conc/cache"
	"github.com/a2y-d5l/go-conc/cell"
	"github.com/a2y-d5l/go-conc/outcome"
	"github.com/a2y-d5l/go-conc/queue"
)

// Core types
type Outcome[E, V any] = outcome.Outcome[E, V]
type Defect = outcome.Defect
type Kind = outcome.Kind
type Cell[E, V any] = cell.Cell[E, V]
type Cache[K comparable, E, V any] = cache.Cache[K, E, V]
type Queue[T any] = queue.Queue[T]
type Policy = queue.Policy
type Bridge = bridge.Bridge
type Subject = bridge.Subject

// Outcome kinds
const (
	KindSuccess = outcome.KindSuccess
	KindFailure = outcome.KindFailure
	KindDefect  = outcome.KindDefect
)

// Queue admission policies
const (
	PolicyUnbounded = queue.PolicyUnbounded
	PolicyBlocking  = queue.PolicyBlocking
	PolicySliding   = queue.PolicySliding
	PolicyDropping  = queue.PolicyDropping
)

// Constructors
var NewBridge = bridge.New

func NewCell[E, V any]() *Cell[E, V] { return cell.New[E, V]() }

func NewCache[K comparable, E, V any]() *Cache[K, E, V] { return cache.New[K, E, V]() }

func NewQueue[T any](policy Policy, capacity int, opts ...queue.Option) *Queue[T] {
	return queue.New[T](policy, capacity, opts...)
}

// Outcome constructors
func Succeed[E, V any](v V) Outcome[E, V] { return outcome.Succeed[E, V](v) }

func Fail[E, V any](e E) Outcome[E, V] { return outcome.Fail[E, V](e) }

func Die[E, V any](cause any) Outcome[E, V] { return outcome.Die[E, V](cause) }

// Option types
type QueueOption = queue.Option
type BridgeOption = bridge.Option
