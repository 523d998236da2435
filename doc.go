// Package pakcore implements the installation core of an Unreal Engine
// mod manager: container codecs, asset patchers, and the orchestration
// that turns raw mod inputs into load-order-correct game artifacts.
//
// This package provides a unified high-level API through [Manager] for
// ingesting, installing, and removing mods. For low-level container
// operations without orchestration, use the subpackages directly:
// [pak] for the PAK container, [iostore] for .utoc/.ucas pairs,
// [oodle] for the vendor codec, and [uasset] for asset patching.
//
// # Quick Start
//
// Install everything found in a download directory:
//
//	m, err := pakcore.NewManager()
//	if err != nil {
//	    return err
//	}
//	res, err := ingest.Ingest(ctx, downloads)
//	if err != nil {
//	    return err
//	}
//	defer res.Close()
//	m.InstallBatch(ctx, res.Mods, gamePaksDir, &progress, &cancel)
//
// Every installed artifact is named <base>_9999999_P so it loads after
// the game's own paks; [install.Reconcile] documents the rule.
//
// # Deletion
//
// Removal goes through a background worker that renames before it
// unlinks, so a crash mid-delete never leaves a half-mounted mod:
//
//	m.Deleter().Delete(paths)
package pakcore
