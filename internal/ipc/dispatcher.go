package ipc

import (
	"encoding/json"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/events"
	"github.com/kabegame/kabegame-sub003/internal/provider"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/subscription"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// DedupeRunner is the subset of the Dedupe Service the dispatcher needs.
// It is an interface, not a concrete dependency, so internal/ipc doesn't
// import internal/dedupe directly and a test can supply a fake runner.
type DedupeRunner interface {
	Start(deleteFiles bool, batchSize int) error
	Cancel() bool
}

// Dispatcher turns a decoded Request into a Response by routing to
// Storage, the Provider Runtime, the Subscription Manager, or the Dedupe
// Service, mirroring spec §4.6's request variant list ("Storage requests
// mirroring §4.1 operations", "GalleryBrowseProvider{path}", "task
// management", "run-config CRUD").
type Dispatcher struct {
	store       *storage.Storage
	runtime     *provider.Runtime
	subs        *subscription.Manager
	dedupe      DedupeRunner
	broadcaster *events.Broadcaster
}

// NewDispatcher wires a Dispatcher to its backing services. broadcaster
// is published to from the mutating handlers below, so that IPC-driven
// mutations reach subscribers the same way internal/dedupe's scan does.
func NewDispatcher(store *storage.Storage, runtime *provider.Runtime, subs *subscription.Manager, dedupe DedupeRunner, broadcaster *events.Broadcaster) *Dispatcher {
	return &Dispatcher{store: store, runtime: runtime, subs: subs, dedupe: dedupe, broadcaster: broadcaster}
}

// Dispatch handles one request for the connection identified by
// clientID, returning the Response to send back (RequestID is set by the
// connection loop afterward, not here).
func (d *Dispatcher) Dispatch(clientID string, req Request) Response {
	switch req.Type {
	case ReqStatus:
		return ok(map[string]any{"running": true})

	case ReqSubscribeEvents:
		var params struct {
			Kinds []string `json:"kinds"`
		}
		_ = json.Unmarshal(req.Params, &params)
		kinds, err := parseKinds(params.Kinds)
		if err != nil {
			return fail(err.Error())
		}
		d.subs.Subscribe(clientID, kinds...)
		return ok(nil)

	case ReqUnsubscribeEvents:
		d.subs.Unsubscribe(clientID)
		return ok(nil)

	case ReqGalleryBrowse:
		return d.handleGalleryBrowse(req.Params)

	case ReqGetAlbums:
		return d.wrap(d.store.GetAlbums())
	case ReqAddAlbum:
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		album, err := d.store.AddAlbum(p.Name)
		if err == nil {
			d.publish(events.AlbumAdded, map[string]any{"id": album.ID, "name": album.Name})
		}
		return d.wrap(album, err)
	case ReqDeleteAlbum:
		var p struct {
			ID types.AlbumID `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		err := d.store.DeleteAlbum(p.ID)
		if err == nil {
			d.publishGeneric("album-deleted", map[string]any{"id": p.ID})
		}
		return d.wrapErr(err)
	case ReqRenameAlbum:
		var p struct {
			ID      types.AlbumID `json:"id"`
			NewName string        `json:"new_name"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		err := d.store.RenameAlbum(p.ID, p.NewName)
		if err == nil {
			d.publishGeneric("album-renamed", map[string]any{"id": p.ID, "newName": p.NewName})
		}
		return d.wrapErr(err)
	case ReqAddImagesToAlbum:
		var p struct {
			ID       types.AlbumID   `json:"id"`
			ImageIDs []types.ImageID `json:"image_ids"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		n, err := d.store.AddImagesToAlbum(p.ID, p.ImageIDs)
		if err == nil {
			d.publishGeneric("album-images-added", map[string]any{"id": p.ID, "imageIds": p.ImageIDs})
		}
		return d.wrap(n, err)
	case ReqRemoveImagesFromAlbum:
		var p struct {
			ID       types.AlbumID   `json:"id"`
			ImageIDs []types.ImageID `json:"image_ids"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		n, err := d.store.RemoveImagesFromAlbum(p.ID, p.ImageIDs)
		if err == nil {
			d.publishGeneric("album-images-removed", map[string]any{"id": p.ID, "imageIds": p.ImageIDs})
		}
		return d.wrap(n, err)
	case ReqGetAlbumImages:
		var p struct {
			ID types.AlbumID `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		return d.wrap(d.store.GetAlbumImages(p.ID))

	case ReqGetAllImages:
		return d.wrap(d.store.GetAllImages())
	case ReqGetImagesPaginated:
		var p struct {
			Page     int `json:"page"`
			PageSize int `json:"page_size"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		return d.wrap(d.store.GetImagesPaginated(p.Page, p.PageSize))
	case ReqToggleImageFavorite:
		var p struct {
			ID       types.ImageID `json:"id"`
			Favorite bool          `json:"favorite"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		err := d.store.ToggleImageFavorite(p.ID, p.Favorite)
		if err == nil {
			d.publish(events.ImagesChange, map[string]any{"reason": "favorite", "imageIds": []types.ImageID{p.ID}})
		}
		return d.wrapErr(err)
	case ReqRemoveImage:
		var p struct {
			ID types.ImageID `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		err := d.store.RemoveImage(p.ID)
		if err == nil {
			d.publish(events.ImagesChange, map[string]any{"reason": "remove", "imageIds": []types.ImageID{p.ID}})
		}
		return d.wrapErr(err)
	case ReqDeleteImage:
		var p struct {
			ID types.ImageID `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		err := d.store.DeleteImage(p.ID)
		if err == nil {
			d.publish(events.ImagesChange, map[string]any{"reason": "delete", "imageIds": []types.ImageID{p.ID}})
		}
		return d.wrapErr(err)

	case ReqGetAllTasks:
		return d.wrap(d.store.GetAllTasks())
	case ReqGetTask:
		var p struct {
			ID types.TaskID `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		return d.wrap(d.store.GetTask(p.ID))
	case ReqDeleteTask:
		var p struct {
			ID types.TaskID `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		return d.wrapErr(d.store.DeleteTask(p.ID))
	case ReqGetTaskImages:
		var p struct {
			ID types.TaskID `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		return d.wrap(d.store.GetTaskImages(p.ID))
	case ReqClearFinishedTasks:
		return d.wrap(d.store.ClearFinishedTasks())

	case ReqGetRunConfigs:
		return d.wrap(d.store.GetRunConfigs())
	case ReqAddRunConfig:
		var cfg types.RunConfig
		if err := json.Unmarshal(req.Params, &cfg); err != nil {
			return fail(err.Error())
		}
		return d.wrapErr(d.store.AddRunConfig(cfg))
	case ReqUpdateRunConfig:
		var cfg types.RunConfig
		if err := json.Unmarshal(req.Params, &cfg); err != nil {
			return fail(err.Error())
		}
		return d.wrapErr(d.store.UpdateRunConfig(cfg))
	case ReqDeleteRunConfig:
		var p struct {
			ID types.RunConfigID `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		return d.wrapErr(d.store.DeleteRunConfig(p.ID))

	case ReqGetSettings:
		return d.wrap(d.store.GetSettings())
	case ReqSetAutoDedupe:
		var p struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err.Error())
		}
		return d.wrapErr(d.store.SetAutoDedupe(p.Enabled))

	case ReqStartDedupe:
		if d.dedupe == nil {
			return fail("dedupe service not available")
		}
		var p struct {
			DeleteFiles bool `json:"delete_files"`
			BatchSize   int  `json:"batch_size"`
		}
		_ = json.Unmarshal(req.Params, &p)
		if p.BatchSize <= 0 {
			p.BatchSize = 200
		}
		return d.wrapErr(d.dedupe.Start(p.DeleteFiles, p.BatchSize))
	case ReqCancelDedupe:
		if d.dedupe == nil {
			return fail("dedupe service not available")
		}
		return ok(map[string]any{"was_running": d.dedupe.Cancel()})

	default:
		return fail("unknown request type: " + req.Type)
	}
}

// handleGalleryBrowse resolves a gallery-facing path against the Provider
// Runtime and serializes its listing (or, for a terminal file, its
// resolved id/path) as response data.
func (d *Dispatcher) handleGalleryBrowse(params json.RawMessage) Response {
	var p struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return fail(err.Error())
	}
	res := d.runtime.Resolve(false, p.Path)
	switch res.Kind {
	case provider.ResolveNotFound:
		return fail("path not found: " + p.Path)
	case provider.ResolveFileResult:
		return ok(map[string]any{
			"kind":          "file",
			"image_id":      res.ImageID,
			"resolved_path": res.ResolvedPath,
		})
	default:
		entries, err := res.Provider.List()
		if err != nil {
			return fail(err.Error())
		}
		return ok(map[string]any{"kind": "directory", "entries": entries})
	}
}

func parseKinds(names []string) ([]events.Kind, error) {
	if len(names) == 0 {
		return nil, nil
	}
	byName := make(map[string]events.Kind, len(events.AllKinds))
	for _, k := range events.AllKinds {
		byName[k.String()] = k
	}
	kinds := make([]events.Kind, 0, len(names))
	for _, n := range names {
		k, found := byName[n]
		if !found {
			return nil, errorx.New(errorx.InvalidInput, "unknown event kind: "+n)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// publish forwards a successful mutation to the Event Broadcaster, if one
// was wired in. Tests that build a Dispatcher without a broadcaster get a
// silent no-op rather than a nil-pointer panic.
func (d *Dispatcher) publish(kind events.Kind, payload any) {
	if d.broadcaster == nil {
		return
	}
	d.broadcaster.Publish(kind, payload)
}

// publishGeneric wraps payload in the catch-all Generic envelope (spec
// §4.8: "Generic{event, payload}") for mutations that don't have a
// dedicated Kind of their own.
func (d *Dispatcher) publishGeneric(event string, payload any) {
	d.publish(events.Generic, map[string]any{"event": event, "payload": payload})
}

// wrap turns a (value, error) storage/provider call result into a
// Response, humanizing the error rather than leaking its Kind.
func (d *Dispatcher) wrap(v any, err error) Response {
	if err != nil {
		return fail(err.Error())
	}
	return ok(v)
}

func (d *Dispatcher) wrapErr(err error) Response {
	if err != nil {
		return fail(err.Error())
	}
	return ok(nil)
}
