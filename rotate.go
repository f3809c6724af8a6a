package groupkey

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pqmsg/groupkey-go/ikp"
	"github.com/pqmsg/groupkey-go/internal/crypto"
)

// Trigger identifies the membership event that caused a rotation. The
// distinction affects audit logging only; both triggers run the same
// rotation protocol.
type Trigger int

const (
	// TriggerMemberAdded marks a rotation caused by a member joining.
	TriggerMemberAdded Trigger = iota + 1
	// TriggerMemberRemoved marks a rotation caused by a member leaving.
	TriggerMemberRemoved
)

func (t Trigger) String() string {
	switch t {
	case TriggerMemberAdded:
		return "member added"
	case TriggerMemberRemoved:
		return "member removed"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

// RotationResult reports the outcome of a completed rotation.
type RotationResult struct {
	// GroupID is the rotated group.
	GroupID string
	// Version is the newly minted key version.
	Version uint32
	// PreviousVersion is the version before rotation, 0 if none existed.
	PreviousVersion uint32
	// Members is the number of members the new key was wrapped for.
	Members int
	// Skipped is the number of members whose keys could not be resolved.
	Skipped int
	// PointerUpdated reports whether the best-effort "current version"
	// pointer publish succeeded.
	PointerUpdated bool
}

// Rotate mints a new key version for the group, stores it locally, builds an
// initial key packet for the current membership, and publishes it to the
// storage substrate.
//
// Rotation may only be initiated by the group owner. New versions are
// strictly monotonic even under clock regression or repeated rotation within
// one second. A member whose keys cannot be resolved is skipped with a
// warning; a substrate failure aborts the rotation with no partial publish.
// Failure of the final version-pointer publish is non-fatal: the packet is
// already published and remains the source of truth.
func (r *Ring) Rotate(ctx context.Context, groupID string, trigger Trigger) (*RotationResult, error) {
	if err := validateGroupID(groupID); err != nil {
		return nil, err
	}
	if r.substrate == nil || r.keyserver == nil || r.directory == nil {
		return nil, fmt.Errorf("%w: rotate requires substrate, keyserver, and directory", ErrInvalidArgument)
	}

	owner, err := r.directory.OwnerOf(ctx, groupID)
	if err != nil {
		return nil, &TransportError{Op: "owner lookup", Key: groupID, Err: err}
	}
	if !bytes.Equal(owner, r.identity.Fingerprint) {
		return nil, fmt.Errorf("%w: group %s", ErrNotOwner, groupID)
	}

	current, err := r.CurrentVersion(ctx, groupID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	newVersion := uint32(r.now().Unix())
	if newVersion <= current {
		newVersion = current + 1
	}

	key, err := r.Generate(groupID, newVersion)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)

	if err := r.Store(ctx, groupID, newVersion, key); err != nil {
		return nil, err
	}

	fingerprints, err := r.directory.ListMembers(ctx, groupID)
	if err != nil {
		return nil, &TransportError{Op: "list members", Key: groupID, Err: err}
	}

	members := make([]ikp.Member, 0, len(fingerprints))
	skipped := 0
	for _, fp := range fingerprints {
		keys, err := r.keyserver.Lookup(ctx, fp)
		if err != nil || keys == nil {
			skipped++
			r.log.Warn().
				Str("group", groupID).
				Hex("member", fp).
				Msg("member key unresolvable, skipping")
			continue
		}
		members = append(members, ikp.Member{
			Fingerprint:  fp,
			KEMPublicKey: keys.KEMPublicKey,
		})
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no resolvable members in group %s", ErrInvalidArgument, groupID)
	}

	packet, err := ikp.Build(groupID, newVersion, key, members, r.identity.SigningSecretKey)
	if err != nil {
		return nil, wrapPacketError("build", err)
	}

	if err := r.substrate.Publish(ctx, ikpKey(groupID, newVersion), packet, r.publishTTL); err != nil {
		return nil, &TransportError{Op: "publish", Key: ikpKey(groupID, newVersion), Err: err}
	}

	// Best-effort pointer update; the published packet is authoritative.
	pointer := binary.BigEndian.AppendUint32(nil, newVersion)
	pointerUpdated := true
	if err := r.substrate.Publish(ctx, pointerKey(groupID), pointer, r.publishTTL); err != nil {
		pointerUpdated = false
		r.log.Warn().
			Str("group", groupID).
			Uint32("version", newVersion).
			Err(err).
			Msg("version pointer publish failed")
	}

	r.log.Info().
		Str("group", groupID).
		Str("trigger", trigger.String()).
		Uint32("previous_version", current).
		Uint32("version", newVersion).
		Int("members", len(members)).
		Int("skipped", skipped).
		Msg("group key rotated")

	return &RotationResult{
		GroupID:         groupID,
		Version:         newVersion,
		PreviousVersion: current,
		Members:         len(members),
		Skipped:         skipped,
		PointerUpdated:  pointerUpdated,
	}, nil
}
