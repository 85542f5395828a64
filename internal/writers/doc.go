// Package writers serializes annotation output.
//
// Design:
//   - Every indexed output shares one section state machine (document): the
//     writer owns its sink and index builder, and every section bound or entry
//     offset it reports comes from the sink's Position at that moment.
//   - JSONWriter emits the Header/Positions/Genes document; PositionalWriter
//     emits the binary Header/Payload store.
//   - Compressed vs plain output is an explicit Mode chosen by the caller.
//   - LineWriter + OptionalSink cover the unindexed VCF/GVCF mirrors.
package writers
