package projects

import (
	"fmt"
	"math/rand"
	"time"
)

// NewPublicID builds a short human-readable project id like
// "proj-48215-3907". Collisions are guarded by the primary key.
func NewPublicID() string {
	return fmt.Sprintf("proj-%05d-%04d", time.Now().Unix()%100000, rand.Intn(10000))
}
