/*
Package recdb implements a small record store on top of a key-value store
(Bolt by default, SQLite or memory on request).

We implement:

1. Records: text compressed with zlib and stored under a numeric id. Ids are
assigned as “number of existing records + 1” and are never reused, because
records are never deleted.

2. Balances: a signed per-account balance that a host seeds and that
ChargeForData decrements.

A host drives the store through the Engine interface, one call at a time.

# Technical Details

**Buckets.**
Records live in the “data_records” bucket, balances in “account_balances”.
The two namespaces share nothing.

## Binary encoding

**Record key**: 8-byte big-endian id, so a cursor walks records in id order.

**Record value**: flags (uvarint), then a msgpack map:
1. “i”: the id (must match the key).
2. “p”: the zlib-compressed payload.
3. “s”: xxhash64 of the payload.

Flags bits 0-3 hold the format version (currently 1), bit 4 says the payload
is zlib-compressed.

**Balance key**: account id bytes. **Balance value**: 8-byte big-endian
two's complement int64.
*/
package recdb
