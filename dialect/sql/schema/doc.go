// Package schema generates table DDL and validates column sets before they
// are scripted.
//
//	ddl := schema.CreateTable("Person", cols)
//
//	if err := schema.ValidateTable("Person", cols).Err(); err != nil {
//	    return err
//	}
package schema
