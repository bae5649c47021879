package webapp

import (
	"errors"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Host-side custom methods backing the cloud storage surface.
const (
	methodSaveStorageValue    = "saveStorageValue"
	methodGetStorageValues    = "getStorageValues"
	methodDeleteStorageValues = "deleteStorageValues"
	methodGetStorageKeys      = "getStorageKeys"
)

const cloudStorageMinVersion = "6.9"

// CloudStorage is the host-managed persistent key-value store for the app.
// The host owns the data; every operation is asynchronous and reports back
// through its callback exactly once, with a nil error on success. Callbacks
// may be nil when the caller does not care about the outcome. No ordering
// is guaranteed between independently issued operations.
type CloudStorage struct {
	app *WebApp
}

// SetItem stores value under key.
func (c *CloudStorage) SetItem(key, value string, cb func(err error, ok bool)) {
	c.app.invokeCustomMethod(methodSaveStorageValue,
		map[string]string{"key": key, "value": value},
		func(result gjson.Result, err error) {
			if cb == nil {
				return
			}
			if err != nil {
				cb(err, false)
				return
			}
			cb(nil, result.Bool())
		})
}

// GetItem fetches one value. A key that was never set yields an empty
// string, not an error.
func (c *CloudStorage) GetItem(key string, cb func(err error, value string)) {
	c.GetItems([]string{key}, func(err error, values map[string]string) {
		if cb == nil {
			return
		}
		if err != nil {
			cb(err, "")
			return
		}
		cb(nil, values[key])
	})
}

// GetItems fetches several values in one host round trip. The resulting map
// holds an entry per requested key.
func (c *CloudStorage) GetItems(keys []string, cb func(err error, values map[string]string)) {
	c.app.invokeCustomMethod(methodGetStorageValues,
		map[string][]string{"keys": keys},
		func(result gjson.Result, err error) {
			if cb == nil {
				return
			}
			if err != nil {
				cb(err, nil)
				return
			}
			values := make(map[string]string, len(keys))
			for k, v := range result.Map() {
				values[k] = v.String()
			}
			cb(nil, values)
		})
}

// RemoveItem deletes one key.
func (c *CloudStorage) RemoveItem(key string, cb func(err error, ok bool)) {
	c.RemoveItems([]string{key}, cb)
}

// RemoveItems deletes several keys in one host round trip.
func (c *CloudStorage) RemoveItems(keys []string, cb func(err error, ok bool)) {
	c.app.invokeCustomMethod(methodDeleteStorageValues,
		map[string][]string{"keys": keys},
		func(result gjson.Result, err error) {
			if cb == nil {
				return
			}
			if err != nil {
				cb(err, false)
				return
			}
			cb(nil, result.Bool())
		})
}

// GetKeys lists every key the app has stored.
func (c *CloudStorage) GetKeys(cb func(err error, keys []string)) {
	c.app.invokeCustomMethod(methodGetStorageKeys, struct{}{},
		func(result gjson.Result, err error) {
			if cb == nil {
				return
			}
			if err != nil {
				cb(err, nil)
				return
			}
			var keys []string
			for _, k := range result.Array() {
				keys = append(keys, k.String())
			}
			cb(nil, keys)
		})
}

// invokeCustomMethod sends a correlated request to the host and parks cb
// until the matching custom_method_invoked event arrives. The host's error
// string, when present, is delivered as the callback's error.
func (w *WebApp) invokeCustomMethod(method string, params any, cb func(result gjson.Result, err error)) {
	if !w.supports(cloudStorageMinVersion, "custom method "+method) {
		if cb != nil {
			cb(gjson.Result{}, errors.New("webapp: method " + method + " not supported by host version " + w.version))
		}
		return
	}

	reqID := uuid.NewString()
	w.pending.mu.Lock()
	w.pending.custom[reqID] = func(result gjson.Result, errMsg string) {
		if cb == nil {
			return
		}
		if errMsg != "" {
			cb(gjson.Result{}, errors.New(errMsg))
			return
		}
		cb(result, nil)
	}
	w.pending.mu.Unlock()

	w.post(cmdInvokeCustomMethod, map[string]any{
		"req_id": reqID,
		"method": method,
		"params": params,
	})
}

func (w *WebApp) resolveCustomMethod(reqID string, result gjson.Result, errMsg string) {
	w.pending.mu.Lock()
	cb, ok := w.pending.custom[reqID]
	if ok {
		delete(w.pending.custom, reqID)
	}
	w.pending.mu.Unlock()
	if !ok {
		w.log.Debug("webapp: custom method response without request", "req_id", reqID)
		return
	}
	cb(result, errMsg)
}
