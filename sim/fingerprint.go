package sim

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// RegistryFingerprint hashes the registered class and field layout into a
// single uint64. A transport collaborator can exchange this value (next to
// its own HeaderByte) before trusting any snapshot from a peer, turning a
// silent schema mismatch into an immediate ErrHeaderCheckFailed instead of
// a corrupt decode.
func (r *ClassRegistry) RegistryFingerprint() uint64 {
	h := xxhash.New()
	for _, class := range r.classes {
		fmt.Fprintf(h, "class:%d:%s:%d:%d\n", class.ClassId, class.Descriptor.Name, class.Descriptor.Kind, class.Descriptor.LagCompensatedCount)
		for _, f := range class.Descriptor.Fields {
			fmt.Fprintf(h, "field:%d:%s:%d:%s\n", f.ID, f.Name, f.Flags, f.ValueType)
		}
	}
	return h.Sum64()
}
