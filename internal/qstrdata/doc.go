// Package qstrdata encodes interned-string table records: the identifier
// escaping used for MP_QSTR_ names and the hash and length prefixed byte
// literal read back by the runtime. Field widths must match the runtime
// build exactly.
package qstrdata
